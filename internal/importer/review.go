package importer

import (
	"context"
	"errors"
	"sync"

	"expenser/internal/core"
	"expenser/internal/notify"
	"expenser/internal/validate"
)

var (
	ErrReviewDone    = errors.New("no candidates left to review")
	ErrBadPosition   = errors.New("position out of range")
	ErrWrongCandKind = errors.New("candidate kind cannot change during review")
)

// Reindex computes the cursor and remaining count after removing the item
// at removed. Removing at or before the cursor shifts the cursor back by
// one so the same neighbouring item stays visible; removing after it
// leaves the cursor alone. The count always drops by exactly one.
func Reindex(removed, current, count int) (newCurrent, newCount int) {
	newCount = count - 1
	newCurrent = current
	if removed <= current {
		newCurrent--
	}
	if newCurrent < 0 {
		newCurrent = 0
	}
	return newCurrent, newCount
}

// Committer persists a reviewed candidate. Implemented by the entity
// mutation layer.
type Committer interface {
	CommitImported(ctx context.Context, tx validate.Transaction) error
}

// Review is the carousel over import candidates. Each candidate is either
// committed through its creation form or explicitly skipped; both remove
// it. When the last one goes, the onEmpty hook fires exactly once and the
// review is over.
type Review struct {
	mu        sync.Mutex
	items     []core.Candidate
	current   int
	committer Committer
	notifier  notify.Notifier
	onSkip    func(ctx context.Context, c core.Candidate)
	onEmpty   func(ctx context.Context)
	done      bool
}

func newReview(
	items []core.Candidate,
	committer Committer,
	notifier notify.Notifier,
	onSkip func(ctx context.Context, c core.Candidate),
	onEmpty func(ctx context.Context),
) *Review {
	return &Review{
		items:     items,
		committer: committer,
		notifier:  notifier,
		onSkip:    onSkip,
		onEmpty:   onEmpty,
	}
}

// Current returns the visible candidate, its zero-based position, and the
// remaining count. ok is false once the review is finished.
func (r *Review) Current() (c core.Candidate, position, count int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return core.Candidate{}, 0, 0, false
	}
	return r.items[r.current], r.current, len(r.items), true
}

// Next advances the carousel, wrapping at the end.
func (r *Review) Next() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) > 0 {
		r.current = (r.current + 1) % len(r.items)
	}
}

// Prev steps the carousel back, wrapping at the start.
func (r *Review) Prev() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) > 0 {
		r.current = (r.current + len(r.items) - 1) % len(r.items)
	}
}

// FormFor prefills the creation form for the visible candidate.
func (r *Review) FormFor() (validate.TransactionForm, bool) {
	c, _, _, ok := r.Current()
	if !ok {
		return validate.TransactionForm{}, false
	}
	return validate.TransactionForm{
		Kind:     c.Kind,
		Name:     c.Name,
		Category: c.Category,
		Amount:   c.Amount,
		Date:     c.Date.String(),
		Note:     c.Note,
	}, true
}

// Commit validates the (possibly user-corrected) form and persists it.
// On success the candidate is removed; the mutation layer already showed
// the saved notification. Validation and persistence failures leave the
// candidate in place so the user can correct or retry.
func (r *Review) Commit(ctx context.Context, form validate.TransactionForm) error {
	r.mu.Lock()
	if len(r.items) == 0 {
		r.mu.Unlock()
		return ErrReviewDone
	}
	kind := r.items[r.current].Kind
	r.mu.Unlock()

	// The kind was fixed by the import mapping; the form may correct
	// every other field.
	if form.Kind != kind {
		return ErrWrongCandKind
	}

	tx, errs := form.Resolve()
	if len(errs) > 0 {
		return errs
	}
	if err := r.committer.CommitImported(ctx, tx); err != nil {
		return err
	}

	r.removeCurrent(ctx)
	return nil
}

// Skip discards the visible candidate without persisting it.
func (r *Review) Skip(ctx context.Context) error {
	r.mu.Lock()
	if len(r.items) == 0 {
		r.mu.Unlock()
		return ErrReviewDone
	}
	skipped := r.items[r.current]
	r.mu.Unlock()

	if r.onSkip != nil {
		r.onSkip(ctx, skipped)
	}
	r.notifier.Info(ctx, "Skipped "+skipped.Name)

	r.removeCurrent(ctx)
	return nil
}

func (r *Review) removeCurrent(ctx context.Context) {
	r.mu.Lock()

	removed := r.current
	r.items = append(r.items[:removed], r.items[removed+1:]...)
	r.current, _ = Reindex(removed, r.current, len(r.items)+1)

	emptied := len(r.items) == 0 && !r.done
	if emptied {
		r.done = true
	}
	r.mu.Unlock()

	// Fires once per transition into the empty state, not per removal.
	if emptied {
		r.notifier.Info(ctx, "No more transactions to review")
		if r.onEmpty != nil {
			r.onEmpty(ctx)
		}
	}
}

// Remaining returns the number of candidates still to review.
func (r *Review) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
