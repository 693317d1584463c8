// Package importer drives the bulk-import workflow: a spreadsheet is
// gated client-side, uploaded, parsed server-side into candidate rows,
// and each candidate is reviewed one at a time before anything persists.
// Skipped or cancelled candidates are never persisted.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"expenser/internal/api"
	"expenser/internal/core"
	"expenser/internal/log"
	"expenser/internal/notify"
)

// State is the pipeline's position in the import workflow.
type State int

const (
	StateIdle State = iota
	StateAwaitingUpload
	StateUploading
	StateReviewInProgress
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingUpload:
		return "awaiting-upload"
	case StateUploading:
		return "uploading"
	case StateReviewInProgress:
		return "review-in-progress"
	}
	return "unknown"
}

var (
	ErrNotAwaitingUpload = errors.New("no upload in progress")
	ErrAlreadyActive     = errors.New("an import is already in progress")
)

// DefaultCategory is assigned to every candidate; the user corrects it
// during review.
const DefaultCategory = "Uncategorized"

// importedRow is the raw candidate shape returned by the bulk-import
// endpoint.
type importedRow struct {
	Name    string     `json:"name"`
	Date    string     `json:"date"`
	Expense bool       `json:"expense"`
	Amount  flexString `json:"amount"`
}

// flexString tolerates both `"150"` and `150` in the response.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Uploader is the slice of the API client the pipeline needs.
type Uploader interface {
	Upload(ctx context.Context, path, field, fileName string, content []byte) (*api.Response, error)
}

// Pipeline is the import state machine. All transitions run under one
// lock; cancellation from any state returns to Idle.
type Pipeline struct {
	mu       sync.Mutex
	state    State
	review   *Review
	uploader Uploader
	gate     Gate
	notifier notify.Notifier
	logger   *log.Logger

	committer Committer
	onSkip    func(ctx context.Context, c core.Candidate)
}

func NewPipeline(
	uploader Uploader,
	gate Gate,
	committer Committer,
	notifier notify.Notifier,
	onSkip func(ctx context.Context, c core.Candidate),
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		state:     StateIdle,
		uploader:  uploader,
		gate:      gate,
		committer: committer,
		notifier:  notifier,
		onSkip:    onSkip,
		logger:    logger.WithComponent(log.ComponentImporter),
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Begin opens the upload surface: Idle -> AwaitingUpload.
func (p *Pipeline) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return ErrAlreadyActive
	}
	p.state = StateAwaitingUpload
	return nil
}

// Offer submits one file. A gate violation rejects it before any network
// call and the pipeline stays in AwaitingUpload. A server rejection also
// returns to AwaitingUpload. Success moves to ReviewInProgress, or back
// to Idle when the file held no transactions.
func (p *Pipeline) Offer(ctx context.Context, fileName string, content []byte) error {
	p.mu.Lock()
	if p.state != StateAwaitingUpload {
		p.mu.Unlock()
		return ErrNotAwaitingUpload
	}

	if err := p.gate.Check(fileName, content); err != nil {
		p.mu.Unlock()
		p.notifier.Error(ctx, err.Error())
		p.logger.WarnContext(ctx, "Upload rejected by file gate",
			log.FieldFileName, fileName,
			log.FieldFileSize, len(content),
			log.FieldError, err)
		return err
	}

	p.state = StateUploading
	p.mu.Unlock()

	resp, err := p.uploader.Upload(ctx, "/bulk-import", "file", fileName, content)
	if err != nil {
		p.setState(StateAwaitingUpload)
		p.notifier.Error(ctx, "Upload failed, please try again")
		return fmt.Errorf("upload %s: %w", fileName, err)
	}
	if !resp.OK() {
		p.setState(StateAwaitingUpload)
		uploadErr := resp.Err()
		p.notifier.Error(ctx, uploadErr.Error())
		return uploadErr
	}

	var rows []importedRow
	if err := resp.Decode(&rows); err != nil {
		p.setState(StateAwaitingUpload)
		p.notifier.Error(ctx, "Could not read the imported transactions")
		return err
	}

	candidates := make([]core.Candidate, len(rows))
	for i, row := range rows {
		candidates[i] = p.mapCandidate(ctx, row)
	}

	p.logger.InfoContext(ctx, "Upload parsed",
		log.FieldFileName, fileName,
		log.FieldCandidates, len(candidates))

	p.startReview(ctx, candidates)
	return nil
}

// OfferCandidates feeds candidates from an alternative source (e.g. a
// Google Sheet) straight into the review carousel.
func (p *Pipeline) OfferCandidates(ctx context.Context, candidates []core.Candidate) error {
	p.mu.Lock()
	if p.state != StateIdle && p.state != StateAwaitingUpload {
		p.mu.Unlock()
		return ErrAlreadyActive
	}
	p.mu.Unlock()

	p.startReview(ctx, candidates)
	return nil
}

func (p *Pipeline) startReview(ctx context.Context, candidates []core.Candidate) {
	if len(candidates) == 0 {
		p.setState(StateIdle)
		p.notifier.Info(ctx, "No transactions found to import")
		return
	}

	p.mu.Lock()
	p.review = newReview(candidates, p.committer, p.notifier, p.onSkip, func(ctx context.Context) {
		// Review drained itself; close the surface.
		p.setState(StateIdle)
	})
	p.state = StateReviewInProgress
	p.mu.Unlock()
}

// mapCandidate applies the response mapping rules: the expense flag picks
// Expense or Income (imports never produce Investment), the category
// defaults to "Uncategorized", the note to empty. An unparseable date
// falls back to today with a diagnostic; it never blocks the import.
func (p *Pipeline) mapCandidate(ctx context.Context, row importedRow) core.Candidate {
	kind := core.KindIncome
	if row.Expense {
		kind = core.KindExpense
	}

	date, err := core.ParseDate(row.Date)
	if err != nil {
		p.logger.WarnContext(ctx, "Candidate date unparseable, using today",
			log.FieldError, err,
			"raw_date", row.Date)
		date = core.Today()
	}

	return core.Candidate{
		Name:     row.Name,
		Date:     date,
		Amount:   string(row.Amount),
		Kind:     kind,
		Category: DefaultCategory,
		Note:     "",
	}
}

// Review returns the active review session, or nil outside
// ReviewInProgress.
func (p *Pipeline) Review() *Review {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateReviewInProgress {
		return nil
	}
	return p.review
}

// Cancel unconditionally returns to Idle from any state. Remaining
// candidates are discarded and never persisted; no empty-state
// notification fires.
func (p *Pipeline) Cancel(ctx context.Context) {
	p.mu.Lock()
	remaining := 0
	if p.review != nil {
		remaining = p.review.Remaining()
	}
	p.state = StateIdle
	p.review = nil
	p.mu.Unlock()

	if remaining > 0 {
		p.logger.InfoContext(ctx, "Import cancelled",
			log.FieldCandidates, remaining)
	}
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// ParsePosition converts a one-based user-entered position to an index.
func ParsePosition(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > count {
		return 0, ErrBadPosition
	}
	return n - 1, nil
}
