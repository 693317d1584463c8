package sheets

import (
	"testing"

	"expenser/internal/core"
)

func TestParseRow(t *testing.T) {
	cases := []struct {
		name    string
		row     []string
		want    core.Candidate
		wantErr bool
	}{
		{
			name: "expense row",
			row:  []string{"Coffee", "01/01/2025", "150", "TRUE"},
			want: core.Candidate{Name: "Coffee", Date: core.NewDate(2025, 1, 1), Amount: "150", Kind: core.KindExpense, Category: "Uncategorized"},
		},
		{
			name: "income row",
			row:  []string{"Salary", "02/01/2025", "5,000.50", "false"},
			want: core.Candidate{Name: "Salary", Date: core.NewDate(2025, 1, 2), Amount: "5000.50", Kind: core.KindIncome, Category: "Uncategorized"},
		},
		{
			name: "missing expense flag defaults to income",
			row:  []string{"Refund", "03/01/2025", "20"},
			want: core.Candidate{Name: "Refund", Date: core.NewDate(2025, 1, 3), Amount: "20", Kind: core.KindIncome, Category: "Uncategorized"},
		},
		{
			name: "yes flag is truthy",
			row:  []string{"Rent", "04/01/2025", "900", "yes"},
			want: core.Candidate{Name: "Rent", Date: core.NewDate(2025, 1, 4), Amount: "900", Kind: core.KindExpense, Category: "Uncategorized"},
		},
		{name: "empty name", row: []string{"", "01/01/2025", "10", "true"}, wantErr: true},
		{name: "bad date", row: []string{"X", "2025-01-01", "10", "true"}, wantErr: true},
		{name: "empty amount", row: []string{"X", "01/01/2025", "", "true"}, wantErr: true},
		{name: "empty row", row: nil, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseRow(tc.row)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tc.want.Name || got.Amount != tc.want.Amount || got.Kind != tc.want.Kind {
				t.Fatalf("parsed %+v, want %+v", got, tc.want)
			}
			if got.Date.String() != tc.want.Date.String() {
				t.Fatalf("date %q, want %q", got.Date.String(), tc.want.Date.String())
			}
			if got.Category != "Uncategorized" {
				t.Fatalf("category %q", got.Category)
			}
		})
	}
}

func TestIsTruthy(t *testing.T) {
	truthy := []string{"true", "TRUE", "1", "yes", "Y", "x", " t "}
	falsy := []string{"", "false", "0", "no", "maybe"}
	for _, s := range truthy {
		if !isTruthy(s) {
			t.Errorf("isTruthy(%q) = false", s)
		}
	}
	for _, s := range falsy {
		if isTruthy(s) {
			t.Errorf("isTruthy(%q) = true", s)
		}
	}
}
