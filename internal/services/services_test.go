package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenser/internal/amqp"
	"expenser/internal/api"
	"expenser/internal/cache"
	"expenser/internal/core"
	"expenser/internal/log"
	"expenser/internal/session"
	"expenser/internal/validate"
)

// countingCache wraps the real LRU and counts Delete calls per key.
type countingCache struct {
	*cache.LRUCache[any]
	mu      sync.Mutex
	deletes map[string]int
}

func newCountingCache() *countingCache {
	return &countingCache{
		LRUCache: cache.NewLRUCache[any](16, time.Minute),
		deletes:  make(map[string]int),
	}
}

func (c *countingCache) Delete(key string) {
	c.mu.Lock()
	c.deletes[key]++
	c.mu.Unlock()
	c.LRUCache.Delete(key)
}

// recorder captures notifications in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+": "+msg)
}

func (r *recorder) Success(_ context.Context, msg string) { r.add("success", msg) }
func (r *recorder) Error(_ context.Context, msg string)   { r.add("error", msg) }
func (r *recorder) Info(_ context.Context, msg string)    { r.add("info", msg) }

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// publisherRecorder captures activity events instead of a broker.
type publisherRecorder struct {
	mu   sync.Mutex
	msgs []*amqp.ActivityMessage
}

func (p *publisherRecorder) PublishActivity(_ context.Context, msg *amqp.ActivityMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *publisherRecorder) all() []*amqp.ActivityMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.ActivityMessage(nil), p.msgs...)
}

type fixture struct {
	service   *Service
	cache     *countingCache
	notifier  *recorder
	publisher *publisherRecorder
	sessions  *session.Store
	requests  *int
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	sessions := session.NewStore(filepath.Join(t.TempDir(), "session.json"), time.Hour)
	logger := log.New(log.DefaultConfig())
	client := api.NewClient(srv.URL+"/cxf", 5*time.Second, sessions, logger)

	c := newCountingCache()
	rec := &recorder{}
	pub := &publisherRecorder{}
	return &fixture{
		service:   NewService(client, c, sessions, rec, pub, logger),
		cache:     c,
		notifier:  rec,
		publisher: pub,
		sessions:  sessions,
		requests:  &requests,
	}
}

func TestListExpensesCachesCollection(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cxf/transaction", r.URL.Path)
		io.WriteString(w, `{"transactions":[{"id":1,"name":"Coffee","type":"Food","amount":"150","date":"01/01/2025","note":""}]}`)
	})

	first, err := f.service.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "Coffee", first[0].Name)
	assert.Equal(t, "150", first[0].Amount.String())
	assert.Equal(t, "01/01/2025", first[0].Date.String())

	second, err := f.service.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, 1, *f.requests, "second list must come from the cache")
}

func TestListTypesDecodesEnvelope(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"transaction_types":[{"id":3,"name":"Food","description":"meals"}]}`)
	})

	types, err := f.service.ListTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Food", types[0].Name)
}

func TestCreateExpenseInvalidatesAndNotifies(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cxf/transaction", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	})
	f.cache.Set(KeyExpenses, []core.Expense{{Name: "stale"}})

	tx, errs := validate.TransactionForm{
		Kind: core.KindExpense, Name: "Coffee", Category: "Food", Amount: "150", Date: "01/01/2025",
	}.Resolve()
	require.Nil(t, errs)

	require.NoError(t, f.service.CreateTransaction(context.Background(), tx, "form"))

	_, ok := f.cache.Get(KeyExpenses)
	assert.False(t, ok, "expenses key must be invalidated")
	assert.Equal(t, []string{"success: Expense saved"}, f.notifier.all())
}

func TestUpdateCategoryInvalidatesBothKeysOnce(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/cxf/category/7", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	err := f.service.UpdateCategory(context.Background(), 7, validate.CategoryForm{Name: "Funds", Kind: "Investment"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.cache.deletes[KeyCategories], "categories invalidated exactly once")
	assert.Equal(t, 1, f.cache.deletes[KeyExpenses], "expenses invalidated exactly once")
	assert.Zero(t, f.cache.deletes[KeyIncomes])
}

func TestMutationFailureStillInvalidates(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"category in use"}`)
	})
	f.cache.Set(KeyCategories, []core.Category{{Name: "stale"}})

	err := f.service.DeleteCategory(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, "category in use", err.Error(), "server message surfaces verbatim")

	_, ok := f.cache.Get(KeyCategories)
	assert.False(t, ok, "invalidation is unconditional on settle")
	assert.Equal(t, []string{"error: category in use"}, f.notifier.all())
}

func TestDeleteMissingEntitySurfacesServerMessage(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"transaction not found"}`)
	})
	f.cache.Set(KeyExpenses, []core.Expense{{ID: 9, Name: "stale"}})

	err := f.service.DeleteTransaction(context.Background(), core.KindExpense, 9)
	require.Error(t, err)
	assert.Equal(t, "transaction not found", err.Error())

	// Stale entry is gone; the next list refetches and finds it absent.
	_, ok := f.cache.Get(KeyExpenses)
	assert.False(t, ok)
}

func TestTransportFailureNotifiesGenerically(t *testing.T) {
	sessions := session.NewStore(filepath.Join(t.TempDir(), "session.json"), time.Hour)
	logger := log.New(log.DefaultConfig())
	client := api.NewClient("http://127.0.0.1:1/cxf", 500*time.Millisecond, sessions, logger)
	c := newCountingCache()
	rec := &recorder{}
	svc := NewService(client, c, sessions, rec, nil, logger)

	tx, errs := validate.TransactionForm{
		Kind: core.KindIncome, Name: "Pay", Category: "Work", Amount: "10", Date: "01/01/2025",
	}.Resolve()
	require.Nil(t, errs)

	err := svc.CreateTransaction(context.Background(), tx, "form")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, []string{"error: Network error, please try again"}, rec.all())
	assert.Equal(t, 1, c.deletes[KeyIncomes], "invalidation happens even on transport failure")
}

func TestLoginEstablishesSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cxf/login", r.URL.Path)
		io.WriteString(w, `{"token":"tok-1","name":"Ada","username":"ada"}`)
	})

	sess, err := f.service.Login(context.Background(), validate.LoginForm{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)

	current, err := f.sessions.Current()
	require.NoError(t, err)
	assert.Equal(t, "ada", current.Username)
	assert.Equal(t, []string{"success: Welcome back, Ada"}, f.notifier.all())
}

func TestLoginFailureSurfacesMessage(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"invalid credentials"}`)
	})

	_, err := f.service.Login(context.Background(), validate.LoginForm{Username: "ada", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())

	_, err = f.sessions.Current()
	assert.Equal(t, session.ErrNotAuthenticated, err)
}

func TestLogoutFlushesCache(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	f.cache.Set(KeyExpenses, []core.Expense{{Name: "x"}})
	f.cache.Set(KeyCategories, []core.Category{{Name: "y"}})

	require.NoError(t, f.service.Logout(context.Background()))
	assert.Zero(t, f.cache.Size())
}

func TestCategoriesByKind(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"name":"Work","type":"Income","description":""},{"id":2,"name":"Funds","type":"Investment","description":""}]`)
	})

	incomeCats, err := f.service.CategoriesByKind(context.Background(), core.KindIncome)
	require.NoError(t, err)
	require.Len(t, incomeCats, 1)
	assert.Equal(t, "Work", incomeCats[0].Name)
	assert.Equal(t, 1, *f.requests, "filtering reuses the cached collection")

	_, err = f.service.CategoriesByKind(context.Background(), core.KindInvestment)
	require.NoError(t, err)
	assert.Equal(t, 1, *f.requests)
}

func TestCommitImportedPublishesCommitAction(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	form := validate.TransactionForm{
		Kind:     core.KindExpense,
		Name:     "Coffee",
		Category: "Food",
		Amount:   "150",
		Date:     "01/01/2025",
	}
	tx, errs := form.Resolve()
	require.Empty(t, errs)

	require.NoError(t, f.service.CreateTransaction(context.Background(), tx, "cli"))
	require.NoError(t, f.service.CommitImported(context.Background(), tx))

	msgs := f.publisher.all()
	require.Len(t, msgs, 2)

	assert.Equal(t, amqp.ActionCreate, msgs[0].Action)
	assert.Equal(t, "cli", msgs[0].Source)

	assert.Equal(t, amqp.ActionCommit, msgs[1].Action)
	assert.Equal(t, "bulk-import", msgs[1].Source)
	assert.Equal(t, KeyExpenses, msgs[1].Entity)
	assert.Equal(t, "Coffee", msgs[1].Name)
}
