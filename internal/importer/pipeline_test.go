package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"expenser/internal/api"
	"expenser/internal/core"
	"expenser/internal/log"
)

func xlsxBytes(size int) []byte {
	content := make([]byte, size)
	copy(content, zipMagic)
	return content
}

func TestGateCheck(t *testing.T) {
	gate := Gate{MinBytes: 1024, MaxBytes: 10 << 20}

	cases := []struct {
		name     string
		fileName string
		content  []byte
		wantErr  error
	}{
		{"valid xlsx", "transactions.xlsx", xlsxBytes(2048), nil},
		{"uppercase extension", "DATA.XLSX", xlsxBytes(2048), nil},
		{"csv rejected", "data.csv", xlsxBytes(2048), ErrNotSpreadsheet},
		{"no extension", "data", xlsxBytes(2048), ErrNotSpreadsheet},
		{"xlsx extension but not a zip", "fake.xlsx", bytes.Repeat([]byte{'a'}, 2048), ErrNotSpreadsheet},
		{"too small", "tiny.xlsx", xlsxBytes(100), ErrFileTooSmall},
		{"too large", "huge.xlsx", xlsxBytes(10<<20 + 1), ErrFileTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Check(tc.fileName, tc.content)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// fakeUploader satisfies Uploader without a network.
type fakeUploader struct {
	resp   *api.Response
	err    error
	calls  int
	lastFn string
}

func (f *fakeUploader) Upload(_ context.Context, _, _, fileName string, _ []byte) (*api.Response, error) {
	f.calls++
	f.lastFn = fileName
	return f.resp, f.err
}

func newTestPipeline(uploader Uploader, committer Committer, rec *reviewRecorder) *Pipeline {
	return NewPipeline(
		uploader,
		Gate{MinBytes: 1024, MaxBytes: 10 << 20},
		committer,
		rec,
		nil,
		log.New(log.DefaultConfig()),
	)
}

func TestRejectedFileNeverReachesNetwork(t *testing.T) {
	uploader := &fakeUploader{}
	rec := &reviewRecorder{}
	p := newTestPipeline(uploader, &stubCommitter{notifier: rec}, rec)

	if err := p.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	err := p.Offer(context.Background(), "data.csv", xlsxBytes(2048))
	if !errors.Is(err, ErrNotSpreadsheet) {
		t.Fatalf("error = %v", err)
	}
	if uploader.calls != 0 {
		t.Fatal("rejected file must not be uploaded")
	}
	if p.State() != StateAwaitingUpload {
		t.Fatalf("state = %v, want awaiting-upload", p.State())
	}
	if rec.total() != 1 {
		t.Fatalf("expected exactly one error notification, got %d", rec.total())
	}
}

func TestUploadReviewSkipScenario(t *testing.T) {
	// Upload a valid 2KB spreadsheet; the server returns one expense
	// candidate; the user skips it; the pipeline returns to idle with a
	// skip notification followed by the single empty-state notification.
	uploader := &fakeUploader{resp: &api.Response{
		StatusCode: 200,
		Body:       []byte(`[{"name":"Coffee","date":"01/01/2025","expense":true,"amount":"150"}]`),
	}}
	rec := &reviewRecorder{}
	p := newTestPipeline(uploader, &stubCommitter{notifier: rec}, rec)

	ctx := context.Background()
	if err := p.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := p.Offer(ctx, "transactions.xlsx", xlsxBytes(2048)); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if p.State() != StateReviewInProgress {
		t.Fatalf("state = %v, want review-in-progress", p.State())
	}

	review := p.Review()
	c, pos, count, ok := review.Current()
	if !ok || count != 1 || pos != 0 {
		t.Fatalf("current: pos=%d count=%d ok=%v", pos, count, ok)
	}
	if c.Kind != core.KindExpense {
		t.Fatalf("kind = %v, want expense", c.Kind)
	}
	if c.Category != DefaultCategory {
		t.Fatalf("category = %q, want %q", c.Category, DefaultCategory)
	}
	if c.Amount != "150" || c.Date.String() != "01/01/2025" {
		t.Fatalf("candidate %+v", c)
	}

	if err := review.Skip(ctx); err != nil {
		t.Fatalf("skip: %v", err)
	}

	if p.State() != StateIdle {
		t.Fatalf("state = %v, want idle", p.State())
	}
	if rec.count("Skipped Coffee") != 1 || rec.count("No more transactions to review") != 1 {
		t.Fatalf("notifications: %v", rec.messages)
	}
}

func TestCandidateMapping(t *testing.T) {
	uploader := &fakeUploader{resp: &api.Response{
		StatusCode: 200,
		Body: []byte(`[
			{"name":"Coffee","date":"01/01/2025","expense":true,"amount":150},
			{"name":"Salary","date":"02/01/2025","expense":false,"amount":"5000.50"},
			{"name":"Bad date","date":"99/99/9999","expense":true,"amount":"1"}
		]`),
	}}
	rec := &reviewRecorder{}
	p := newTestPipeline(uploader, &stubCommitter{notifier: rec}, rec)

	ctx := context.Background()
	p.Begin()
	if err := p.Offer(ctx, "transactions.xlsx", xlsxBytes(2048)); err != nil {
		t.Fatalf("offer: %v", err)
	}

	review := p.Review()
	first, _, count, _ := review.Current()
	if count != 3 {
		t.Fatalf("count = %d", count)
	}
	if first.Kind != core.KindExpense || first.Amount != "150" {
		t.Fatalf("first candidate %+v", first)
	}

	review.Next()
	second, _, _, _ := review.Current()
	if second.Kind != core.KindIncome || second.Amount != "5000.50" {
		t.Fatalf("expense:false must map to income, got %+v", second)
	}

	review.Next()
	third, _, _, _ := review.Current()
	// Unparseable date falls back to today rather than failing the import.
	if third.Date.String() != core.Today().String() {
		t.Fatalf("bad date mapped to %q", third.Date.String())
	}
}

func TestServerRejectionReturnsToAwaitingUpload(t *testing.T) {
	uploader := &fakeUploader{resp: &api.Response{
		StatusCode: 422,
		Body:       []byte(`{"error":"could not parse spreadsheet"}`),
	}}
	rec := &reviewRecorder{}
	p := newTestPipeline(uploader, &stubCommitter{notifier: rec}, rec)

	p.Begin()
	err := p.Offer(context.Background(), "transactions.xlsx", xlsxBytes(2048))
	if err == nil || err.Error() != "could not parse spreadsheet" {
		t.Fatalf("error = %v", err)
	}
	if p.State() != StateAwaitingUpload {
		t.Fatalf("state = %v", p.State())
	}
}

func TestEmptyResponseReturnsToIdle(t *testing.T) {
	uploader := &fakeUploader{resp: &api.Response{StatusCode: 200, Body: []byte(`[]`)}}
	rec := &reviewRecorder{}
	p := newTestPipeline(uploader, &stubCommitter{notifier: rec}, rec)

	p.Begin()
	if err := p.Offer(context.Background(), "transactions.xlsx", xlsxBytes(2048)); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if p.State() != StateIdle {
		t.Fatalf("state = %v, want idle", p.State())
	}
}

func TestCancelDiscardsRemaining(t *testing.T) {
	uploader := &fakeUploader{resp: &api.Response{
		StatusCode: 200,
		Body:       []byte(`[{"name":"A","date":"01/01/2025","expense":true,"amount":"1"},{"name":"B","date":"01/01/2025","expense":true,"amount":"2"}]`),
	}}
	rec := &reviewRecorder{}
	committer := &stubCommitter{notifier: rec}
	p := newTestPipeline(uploader, committer, rec)

	ctx := context.Background()
	p.Begin()
	if err := p.Offer(ctx, "transactions.xlsx", xlsxBytes(2048)); err != nil {
		t.Fatalf("offer: %v", err)
	}

	p.Cancel(ctx)
	if p.State() != StateIdle {
		t.Fatalf("state = %v", p.State())
	}
	if p.Review() != nil {
		t.Fatal("review must be gone after cancel")
	}
	if len(committer.commits) != 0 {
		t.Fatal("cancelled candidates must never persist")
	}
	if got := rec.count("No more transactions to review"); got != 0 {
		t.Fatal("cancel must not fire the empty-state notification")
	}

	// The pipeline is reusable after cancellation.
	if err := p.Begin(); err != nil {
		t.Fatalf("begin after cancel: %v", err)
	}
}

func TestOfferOutsideAwaitingUpload(t *testing.T) {
	rec := &reviewRecorder{}
	p := newTestPipeline(&fakeUploader{}, &stubCommitter{notifier: rec}, rec)

	err := p.Offer(context.Background(), "transactions.xlsx", xlsxBytes(2048))
	if !errors.Is(err, ErrNotAwaitingUpload) {
		t.Fatalf("error = %v", err)
	}
	if err := p.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := p.Begin(); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("second begin: %v", err)
	}
}
