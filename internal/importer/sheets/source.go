// Package sheets is the alternative import source: candidate rows read
// from a Google Sheet instead of an uploaded spreadsheet. Candidates from
// here enter the same review carousel as the upload path.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenser/internal/config"
	"expenser/internal/core"
	"expenser/internal/log"
)

// Source reads candidate rows from one sheet of one spreadsheet.
// Expected columns, no header assumptions beyond the first row being
// skipped: A name, B date (dd/MM/yyyy), C amount, D expense flag.
type Source struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New creates a Source from configuration. Service account credentials
// come inline or from a file.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Source, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleServiceAccountJSON != "":
		credentialsJSON = []byte(cfg.GoogleServiceAccountJSON)
	case cfg.GoogleServiceAccountFile != "":
		data, err := os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Source{
		svc:           service,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

// Fetch reads the sheet and maps its rows to candidates. A row that
// cannot be parsed is skipped with a diagnostic rather than failing the
// whole fetch, matching the tolerant parse on the upload path.
func (s *Source) Fetch(ctx context.Context) ([]core.Candidate, error) {
	readRange := fmt.Sprintf("%s!A2:D", s.sheetName)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet range %s: %w", readRange, err)
	}

	var candidates []core.Candidate
	for i, row := range resp.Values {
		candidate, err := parseRow(toStrings(row))
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping unparseable sheet row",
				log.FieldSheetsRef, fmt.Sprintf("%s!%d", s.sheetName, i+2),
				log.FieldError, err)
			continue
		}
		candidates = append(candidates, candidate)
	}

	s.logger.InfoContext(ctx, "Sheet rows fetched",
		log.FieldSheetsRef, s.sheetName,
		log.FieldCandidates, len(candidates))
	return candidates, nil
}

// parseRow maps one values row to a candidate with the import defaults.
func parseRow(row []string) (core.Candidate, error) {
	name := strings.TrimSpace(safeGet(row, 0))
	if name == "" {
		return core.Candidate{}, errors.New("empty name")
	}

	date, err := core.ParseDate(safeGet(row, 1))
	if err != nil {
		return core.Candidate{}, fmt.Errorf("date %q: %w", safeGet(row, 1), err)
	}

	amount := core.NormalizeAmount(safeGet(row, 2))
	if amount == "" {
		return core.Candidate{}, errors.New("empty amount")
	}

	kind := core.KindIncome
	if isTruthy(safeGet(row, 3)) {
		kind = core.KindExpense
	}

	return core.Candidate{
		Name:     name,
		Date:     date,
		Amount:   amount,
		Kind:     kind,
		Category: "Uncategorized",
		Note:     "",
	}, nil
}

func isTruthy(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s == "yes" || s == "y" || s == "x"
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
