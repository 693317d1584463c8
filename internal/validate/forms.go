// Package validate turns raw form input into typed domain records. Every
// form validates before anything touches the network; failures name the
// offending field so the caller can render them inline.
package validate

import (
	"strings"

	"expenser/internal/core"
)

// FieldError is a validation failure tied to a single form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors collects per-field failures for one form submission.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Get returns the message for a field, or empty.
func (e Errors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Field-specific messages rendered beside the inputs.
const (
	msgNameRequired     = "Name is required"
	msgCategoryRequired = "Category is required"
	msgTypeRequired     = "Type is required"
	msgAmountInvalid    = "Amount must be a positive number with up to 4 decimal places"
	msgDateRequired     = "Date is required"
	msgDateInvalid      = "Date is not a valid calendar date"
	msgDateFuture       = "Date cannot be in the future"
	msgDateTooOld       = "Date cannot be before 01/01/1900"
	msgNoteTooLong      = "Note cannot exceed 200 characters"
	msgKindUnknown      = "Unknown transaction kind"
	msgKindInvalid      = "Kind must be Income, Expense or Investment"
	msgUsernameRequired = "Username is required"
	msgPasswordRequired = "Password is required"
)

const maxNoteLength = 200

func checkRequired(errs Errors, field, value, msg string) Errors {
	if strings.TrimSpace(value) == "" {
		return append(errs, FieldError{Field: field, Message: msg})
	}
	return errs
}

func checkAmount(errs Errors, raw string) (core.Amount, Errors) {
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return core.Amount{}, append(errs, FieldError{Field: "amount", Message: msgAmountInvalid})
	}
	return amount, errs
}

func checkDate(errs Errors, raw string, noFuture bool) (core.Date, Errors) {
	if strings.TrimSpace(raw) == "" {
		return core.Date{}, append(errs, FieldError{Field: "date", Message: msgDateRequired})
	}
	date, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, append(errs, FieldError{Field: "date", Message: msgDateInvalid})
	}
	if err := date.Validate(); err != nil {
		return core.Date{}, append(errs, FieldError{Field: "date", Message: msgDateTooOld})
	}
	if noFuture && date.AfterDay(core.Today()) {
		return core.Date{}, append(errs, FieldError{Field: "date", Message: msgDateFuture})
	}
	return date, errs
}

func checkNote(errs Errors, note string) Errors {
	if len(note) > maxNoteLength {
		return append(errs, FieldError{Field: "note", Message: msgNoteTooLong})
	}
	return errs
}

// TransactionForm is the one form shape for every transaction kind. The
// kind tag selects the rules (expenses and investments reject future
// dates, income does not) and the target record. Category holds the
// expense type name when Kind is KindExpense.
type TransactionForm struct {
	Kind     core.Kind
	Name     string
	Category string
	Amount   string
	Date     string
	Note     string
}

// Transaction is the resolved closed variant: exactly one payload is set,
// named by Kind.
type Transaction struct {
	Kind       core.Kind
	Expense    core.Expense
	Income     core.Income
	Investment core.Investment
}

// Resolve validates the form under its kind's rules and builds the typed
// record. This is the single dispatch point on transaction kind.
func (f TransactionForm) Resolve() (Transaction, Errors) {
	var errs Errors

	if !f.Kind.Valid() {
		return Transaction{}, Errors{{Field: "kind", Message: msgKindUnknown}}
	}

	errs = checkRequired(errs, "name", f.Name, msgNameRequired)
	if f.Kind == core.KindExpense {
		errs = checkRequired(errs, "type", f.Category, msgTypeRequired)
	} else {
		errs = checkRequired(errs, "category", f.Category, msgCategoryRequired)
	}

	var amount core.Amount
	amount, errs = checkAmount(errs, f.Amount)

	noFuture := f.Kind != core.KindIncome
	var date core.Date
	date, errs = checkDate(errs, f.Date, noFuture)

	errs = checkNote(errs, f.Note)

	if len(errs) > 0 {
		return Transaction{}, errs
	}

	name := strings.TrimSpace(f.Name)
	category := strings.TrimSpace(f.Category)

	tx := Transaction{Kind: f.Kind}
	switch f.Kind {
	case core.KindExpense:
		tx.Expense = core.Expense{Name: name, Type: category, Amount: amount, Date: date, Note: f.Note}
	case core.KindIncome:
		tx.Income = core.Income{Name: name, Category: category, Amount: amount, Date: date, Note: f.Note}
	case core.KindInvestment:
		tx.Investment = core.Investment{Name: name, Category: category, Amount: amount, Date: date, Note: f.Note}
	}
	return tx, nil
}

// CategoryForm collects input for income/investment categories.
type CategoryForm struct {
	Name        string
	Kind        string
	Description string
}

func (f CategoryForm) Resolve() (core.Category, Errors) {
	var errs Errors
	errs = checkRequired(errs, "name", f.Name, msgNameRequired)

	kind := core.Kind(strings.TrimSpace(f.Kind))
	if !kind.Valid() {
		errs = append(errs, FieldError{Field: "kind", Message: msgKindInvalid})
	}

	if len(errs) > 0 {
		return core.Category{}, errs
	}
	return core.Category{
		Name:        strings.TrimSpace(f.Name),
		Kind:        kind,
		Description: f.Description,
	}, nil
}

// TypeForm collects input for expense types.
type TypeForm struct {
	Name        string
	Description string
}

func (f TypeForm) Resolve() (core.TransactionType, Errors) {
	var errs Errors
	errs = checkRequired(errs, "name", f.Name, msgNameRequired)
	if len(errs) > 0 {
		return core.TransactionType{}, errs
	}
	return core.TransactionType{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
	}, nil
}

// SignupForm collects input for account creation.
type SignupForm struct {
	Name     string
	Username string
	Password string
}

func (f SignupForm) Validate() Errors {
	var errs Errors
	errs = checkRequired(errs, "name", f.Name, msgNameRequired)
	errs = checkRequired(errs, "username", f.Username, msgUsernameRequired)
	errs = checkRequired(errs, "password", f.Password, msgPasswordRequired)
	return errs
}

// LoginForm collects credentials.
type LoginForm struct {
	Username string
	Password string
}

func (f LoginForm) Validate() Errors {
	var errs Errors
	errs = checkRequired(errs, "username", f.Username, msgUsernameRequired)
	errs = checkRequired(errs, "password", f.Password, msgPasswordRequired)
	return errs
}
