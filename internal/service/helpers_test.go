package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"grouporder/internal/backend"
	"grouporder/internal/models"
	"grouporder/internal/notify"
	"grouporder/internal/storage/sqlite"
)

// fakeStock serves a canned snapshot.
type fakeStock struct {
	snap *models.StockSnapshot
	err  error
}

func (f *fakeStock) Fetch(ctx context.Context) (*models.StockSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

// fullStock returns a snapshot where everything the tests order is in stock.
func fullStock() *models.StockSnapshot {
	return &models.StockSnapshot{
		FetchedAt: time.Now().Unix(),
		Categories: map[string]map[string]models.StockEntry{
			models.CategorySizes: {
				"small": {InStock: true, Price: 4.5},
				"large": {InStock: true, Price: 6.5},
			},
			models.CategoryComponents: {
				"chicken": {InStock: true},
				"falafel": {InStock: true},
			},
			models.CategorySauces: {
				"garlic": {InStock: true},
				"hot":    {InStock: true},
			},
			models.CategoryToppings: {
				"onion":   {InStock: true},
				"cabbage": {InStock: true},
			},
			models.CategoryDrinks: {
				"cola":  {InStock: true, Price: 2.0},
				"water": {InStock: true, Price: 1.5},
			},
		},
	}
}

// fakeBackend de-duplicates submissions by idempotency token, mimicking the
// dedup contract of the external system.
type fakeBackend struct {
	mu       sync.Mutex
	receipts map[string]backend.Receipt
	tokens   []string
	baskets  []backend.Basket
	fail     error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{receipts: make(map[string]backend.Receipt)}
}

func (f *fakeBackend) Submit(ctx context.Context, basket backend.Basket, token string) (backend.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	f.baskets = append(f.baskets, basket)
	if f.fail != nil {
		return backend.Receipt{}, f.fail
	}
	if receipt, ok := f.receipts[token]; ok {
		return receipt, nil
	}
	receipt := backend.Receipt{
		OrderID:       fmt.Sprintf("ext-%d", len(f.receipts)+1),
		TransactionID: fmt.Sprintf("txn-%d", len(f.receipts)+1),
	}
	f.receipts[token] = receipt
	return receipt, nil
}

func (f *fakeBackend) externalOrders() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.receipts)
}

type testEnv struct {
	store        *sqlite.SQLiteStore
	stock        *fakeStock
	backend      *fakeBackend
	groups       *GroupOrderService
	participants *ParticipantOrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "grouporder-service-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	stockProvider := &fakeStock{snap: fullStock()}
	client := newFakeBackend()

	return &testEnv{
		store:        store,
		stock:        stockProvider,
		backend:      client,
		groups:       NewGroupOrderService(store, stockProvider, client, notify.Noop{}),
		participants: NewParticipantOrderService(store, stockProvider, notify.Noop{}),
	}
}

// setNow pins the clock of both services.
func (e *testEnv) setNow(now time.Time) {
	e.groups.now = func() time.Time { return now }
	e.participants.now = func() time.Time { return now }
}

func kebabBag() models.ItemBag {
	return models.ItemBag{
		SchemaVersion: models.ItemBagSchemaVersion,
		Composites: []models.CompositeItem{
			{
				Size:       "large",
				Components: []string{"chicken"},
				Modifiers:  []string{"garlic"},
				Toppings:   []string{"onion"},
				Quantity:   1,
			},
		},
	}
}

func drinkBag(code string) models.ItemBag {
	return models.ItemBag{
		SchemaVersion: models.ItemBagSchemaVersion,
		Simple: map[string][]models.SimpleItem{
			models.CategoryDrinks: {{Code: code, Quantity: 1}},
		},
	}
}
