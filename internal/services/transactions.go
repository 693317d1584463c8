package services

import (
	"context"
	"fmt"
	"net/http"

	"expenser/internal/amqp"
	"expenser/internal/core"
	"expenser/internal/validate"
)

// kindSpec is the per-kind wiring resolved from the closed variant: the
// endpoint, the collection cache key, and the display label.
type kindSpec struct {
	path  string
	key   string
	label string
}

func specFor(kind core.Kind) (kindSpec, error) {
	switch kind {
	case core.KindExpense:
		return kindSpec{path: "/transaction", key: KeyExpenses, label: "Expense"}, nil
	case core.KindIncome:
		return kindSpec{path: "/income", key: KeyIncomes, label: "Income"}, nil
	case core.KindInvestment:
		return kindSpec{path: "/investment", key: KeyInvestments, label: "Investment"}, nil
	}
	return kindSpec{}, core.ErrInvalidKind
}

// Request bodies carry no id; the id rides in the path.
type expensePayload struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Amount core.Amount `json:"amount"`
	Date   core.Date   `json:"date"`
	Note   string      `json:"note"`
}

type categorizedPayload struct {
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Amount   core.Amount `json:"amount"`
	Date     core.Date   `json:"date"`
	Note     string      `json:"note"`
}

// transactionsEnvelope wraps the expense collection response.
type transactionsEnvelope struct {
	Transactions []core.Expense `json:"transactions"`
}

// ListExpenses returns the full expense collection, cached under "expenses".
// The server sends everything; paging and sorting are the caller's concern.
func (s *Service) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return listCached(ctx, s, KeyExpenses, func(ctx context.Context) ([]core.Expense, error) {
		resp, err := s.api.Do(ctx, http.MethodGet, "/transaction", nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if !resp.OK() {
			return nil, resp.Err()
		}
		var envelope transactionsEnvelope
		if err := resp.Decode(&envelope); err != nil {
			return nil, err
		}
		return envelope.Transactions, nil
	})
}

// ListIncomes returns the full income collection, cached under "incomes".
func (s *Service) ListIncomes(ctx context.Context) ([]core.Income, error) {
	return listCached(ctx, s, KeyIncomes, func(ctx context.Context) ([]core.Income, error) {
		return fetchCollection[core.Income](ctx, s, "/income")
	})
}

// ListInvestments returns the full investment collection, cached under
// "investments".
func (s *Service) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	return listCached(ctx, s, KeyInvestments, func(ctx context.Context) ([]core.Investment, error) {
		return fetchCollection[core.Investment](ctx, s, "/investment")
	})
}

// fetchCollection GETs a bare JSON array collection.
func fetchCollection[T any](ctx context.Context, s *Service, path string) ([]T, error) {
	resp, err := s.api.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if !resp.OK() {
		return nil, resp.Err()
	}
	var items []T
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// payloadFor extracts the wire body and descriptive fields from the
// resolved variant.
func payloadFor(tx validate.Transaction) (body any, name string, amount core.Amount, date core.Date) {
	switch tx.Kind {
	case core.KindExpense:
		e := tx.Expense
		return expensePayload{Name: e.Name, Type: e.Type, Amount: e.Amount, Date: e.Date, Note: e.Note}, e.Name, e.Amount, e.Date
	case core.KindIncome:
		i := tx.Income
		return categorizedPayload{Name: i.Name, Category: i.Category, Amount: i.Amount, Date: i.Date, Note: i.Note}, i.Name, i.Amount, i.Date
	default:
		v := tx.Investment
		return categorizedPayload{Name: v.Name, Category: v.Category, Amount: v.Amount, Date: v.Date, Note: v.Note}, v.Name, v.Amount, v.Date
	}
}

// CreateTransaction persists a resolved transaction of any kind. source
// tags the activity event ("cli" or "form").
func (s *Service) CreateTransaction(ctx context.Context, tx validate.Transaction, source string) error {
	return s.createTransaction(ctx, tx, amqp.ActionCreate, source)
}

// CommitImported persists a reviewed import candidate. Same mutation as
// CreateTransaction, but the activity event carries the commit action so
// the ledger tells reviewed imports apart from plain creates.
func (s *Service) CommitImported(ctx context.Context, tx validate.Transaction) error {
	return s.createTransaction(ctx, tx, amqp.ActionCommit, "bulk-import")
}

func (s *Service) createTransaction(ctx context.Context, tx validate.Transaction, action, source string) error {
	spec, err := specFor(tx.Kind)
	if err != nil {
		return err
	}

	body, name, amount, date := payloadFor(tx)
	resp, sendErr := s.api.Do(ctx, http.MethodPost, spec.path, body)

	if err := s.settle(ctx, resp, sendErr, spec.label+" saved", spec.key); err != nil {
		return err
	}
	s.publish(ctx, s.activity(action, spec.key, 0, name, amount.String(), date, source))
	return nil
}

// UpdateTransaction replaces the record with the given id.
func (s *Service) UpdateTransaction(ctx context.Context, id int64, tx validate.Transaction) error {
	spec, err := specFor(tx.Kind)
	if err != nil {
		return err
	}

	body, name, amount, date := payloadFor(tx)
	resp, sendErr := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", spec.path, id), body)

	if err := s.settle(ctx, resp, sendErr, spec.label+" updated", spec.key); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionUpdate, spec.key, id, name, amount.String(), date, "form"))
	return nil
}

// DeleteTransaction removes the record with the given id. Deleting an id
// the server no longer has surfaces the server's message and still
// invalidates, so the stale entry disappears on the next fetch.
func (s *Service) DeleteTransaction(ctx context.Context, kind core.Kind, id int64) error {
	spec, err := specFor(kind)
	if err != nil {
		return err
	}

	resp, sendErr := s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", spec.path, id), nil)

	if err := s.settle(ctx, resp, sendErr, spec.label+" deleted", spec.key); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionDelete, spec.key, id, "", "", core.Date{}, "form"))
	return nil
}
