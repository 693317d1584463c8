// Package services is the entity query/mutation layer. Reads go through
// the query cache under stable collection keys; mutations call the API,
// notify the outcome, and invalidate on settle. Invalidation is
// unconditional: it happens whether the mutation succeeded or failed, so
// the next read always refetches. Notification is conditional on the
// outcome.
package services

import (
	"context"
	"errors"

	"expenser/internal/amqp"
	"expenser/internal/api"
	"expenser/internal/cache"
	"expenser/internal/core"
	"expenser/internal/log"
	"expenser/internal/notify"
	"expenser/internal/session"
)

// Collection cache keys, one per entity's plural form.
const (
	KeyExpenses    = "expenses"
	KeyIncomes     = "incomes"
	KeyInvestments = "investments"
	KeyCategories  = "categories"
	KeyTypes       = "types"
)

// ErrTransport marks failures that never reached the server, so the
// caller can offer a retry instead of showing a server message.
var ErrTransport = errors.New("network failure")

// Publisher emits activity events for the ledger worker. May be nil when
// AMQP is not configured.
type Publisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}

// Service bundles the API client, cache, session store, and outcome sinks.
type Service struct {
	api       *api.Client
	cache     cache.Cache[any]
	sessions  *session.Store
	notifier  notify.Notifier
	publisher Publisher
	logger    *log.Logger
}

func NewService(
	apiClient *api.Client,
	queryCache cache.Cache[any],
	sessions *session.Store,
	notifier notify.Notifier,
	publisher Publisher,
	logger *log.Logger,
) *Service {
	return &Service{
		api:       apiClient,
		cache:     queryCache,
		sessions:  sessions,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentEntity),
	}
}

// invalidate drops collection keys. Called on every settle path.
func (s *Service) invalidate(keys ...string) {
	for _, key := range keys {
		s.cache.Delete(key)
	}
}

// settle finishes a mutation: unconditional invalidation first, then the
// outcome notification. A transport error surfaces as a generic failure;
// a server error surfaces its message verbatim.
func (s *Service) settle(ctx context.Context, resp *api.Response, sendErr error, successMsg string, keys ...string) error {
	s.invalidate(keys...)

	if sendErr != nil {
		s.notifier.Error(ctx, "Network error, please try again")
		return errors.Join(ErrTransport, sendErr)
	}
	if !resp.OK() {
		err := resp.Err()
		s.notifier.Error(ctx, err.Error())
		return err
	}

	s.notifier.Success(ctx, successMsg)
	return nil
}

// publish emits an activity event for a settled mutation. Failures are
// logged and swallowed: the mutation already succeeded remotely.
func (s *Service) publish(ctx context.Context, msg *amqp.ActivityMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish activity event",
			log.FieldError, err,
			log.FieldEntity, msg.Entity,
			log.FieldOperation, msg.Action)
	}
}

func (s *Service) activity(action, entity string, id int64, name, amount string, date core.Date, source string) *amqp.ActivityMessage {
	msg := amqp.NewActivityMessage(action, entity)
	msg.EntityID = id
	msg.Name = name
	msg.Amount = amount
	if !date.IsZero() {
		msg.Date = date.String()
	}
	msg.Source = source
	return msg
}

// listCached runs a collection fetch through the cache.
func listCached[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if cached, ok := s.cache.Get(key); ok {
		if items, ok := cached.([]T); ok {
			return items, nil
		}
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, items)

	s.logger.DebugContext(ctx, "Collection fetched",
		log.FieldCacheKey, key,
		log.FieldOperation, log.OpList)
	return items, nil
}
