package core

import (
	"encoding/json"
	"testing"
)

func TestDateRoundTrip(t *testing.T) {
	cases := []string{
		"11/09/2025",
		"01/01/2025",
		"29/02/2024", // leap day
		"31/12/1999",
	}
	for _, in := range cases {
		d, err := ParseDate(in)
		if err != nil {
			t.Fatalf("%q unexpected error: %v", in, err)
		}
		if d.String() != in {
			t.Fatalf("%q round-tripped to %q", in, d.String())
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	cases := []string{
		"31/02/2025", // impossible day
		"29/02/2025", // not a leap year
		"2025-09-11", // wrong layout
		"11/13/2025", // month out of range
		"",
		"garbage",
	}
	for _, in := range cases {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) expected error", in)
		}
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(1899, 12, 31).Validate(); err != ErrDateTooOld {
		t.Errorf("expected ErrDateTooOld, got %v", err)
	}
	if err := NewDate(1900, 1, 1).Validate(); err != nil {
		t.Errorf("floor date should validate, got %v", err)
	}
	if err := (Date{}).Validate(); err != ErrInvalidDate {
		t.Errorf("expected ErrInvalidDate for zero date, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	d, _ := ParseDate("11/09/2025")
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"11/09/2025"` {
		t.Fatalf("marshal produced %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != "11/09/2025" {
		t.Fatalf("unmarshal produced %q", back.String())
	}
}

func TestExpenseValidate(t *testing.T) {
	amount, _ := ParseAmount("150")
	valid := Expense{Name: "Coffee", Type: "Food", Amount: amount, Date: NewDate(2025, 1, 1)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(e Expense) Expense
		want error
	}{
		{"empty name", func(e Expense) Expense { e.Name = " "; return e }, ErrEmptyName},
		{"empty type", func(e Expense) Expense { e.Type = ""; return e }, ErrEmptyType},
		{"zero amount", func(e Expense) Expense { e.Amount = Amount{}; return e }, ErrInvalidAmount},
		{"future date", func(e Expense) Expense { e.Date = NewDate(2900, 1, 1); return e }, ErrFutureDate},
		{"ancient date", func(e Expense) Expense { e.Date = NewDate(1899, 1, 1); return e }, ErrDateTooOld},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.mut(valid).Validate(); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIncomeAllowsFutureDate(t *testing.T) {
	amount, _ := ParseAmount("5000")
	in := Income{Name: "Salary", Category: "Work", Amount: amount, Date: NewDate(2900, 1, 1)}
	if err := in.Validate(); err != nil {
		t.Fatalf("future-dated income should validate, got %v", err)
	}

	inv := Investment{Name: "Index fund", Category: "Funds", Amount: amount, Date: NewDate(2900, 1, 1)}
	if err := inv.Validate(); err != ErrFutureDate {
		t.Fatalf("future-dated investment should be rejected, got %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food", Kind: KindExpense}).Validate(); err != nil {
		t.Errorf("valid category rejected: %v", err)
	}
	if err := (Category{Name: "Food", Kind: Kind("Other")}).Validate(); err != ErrInvalidKind {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
	if err := (Category{Kind: KindIncome}).Validate(); err != ErrEmptyName {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}
