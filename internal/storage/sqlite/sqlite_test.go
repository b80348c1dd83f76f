package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"grouporder/internal/models"
	"grouporder/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "grouporder-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestGroupOrder(leaderID string) *models.GroupOrder {
	now := time.Now()
	return &models.GroupOrder{
		LeaderID:  leaderID,
		Name:      "Friday lunch",
		StartTime: now.Unix(),
		EndTime:   now.Add(2 * time.Hour).Unix(),
	}
}

func TestGroupOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroupOrder fills defaults", func(t *testing.T) {
		order := newTestGroupOrder("leader-1")
		if err := store.CreateGroupOrder(ctx, order); err != nil {
			t.Fatalf("CreateGroupOrder failed: %v", err)
		}
		if order.ID == "" {
			t.Error("Expected ID to be generated")
		}
		if order.StoredStatus != models.GroupOrderOpen {
			t.Errorf("StoredStatus = %v, want open", order.StoredStatus)
		}
		if order.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetGroupOrder round-trips", func(t *testing.T) {
		order := newTestGroupOrder("leader-2")
		order.DeliveryFee = 2.5
		if err := store.CreateGroupOrder(ctx, order); err != nil {
			t.Fatalf("CreateGroupOrder failed: %v", err)
		}

		got, err := store.GetGroupOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("GetGroupOrder failed: %v", err)
		}
		if got.LeaderID != "leader-2" || got.DeliveryFee != 2.5 || got.EndTime != order.EndTime {
			t.Errorf("round-trip mismatch: %+v", got)
		}
	})

	t.Run("GetGroupOrder missing returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroupOrder(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("status CAS detects conflicts", func(t *testing.T) {
		order := newTestGroupOrder("leader-3")
		if err := store.CreateGroupOrder(ctx, order); err != nil {
			t.Fatalf("CreateGroupOrder failed: %v", err)
		}

		if err := store.UpdateGroupOrderStatus(ctx, order.ID, models.GroupOrderOpen, models.GroupOrderClosed); err != nil {
			t.Fatalf("first CAS failed: %v", err)
		}
		// Second writer expecting "open" must lose.
		err := store.UpdateGroupOrderStatus(ctx, order.ID, models.GroupOrderOpen, models.GroupOrderClosed)
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
		// CAS on a missing row is NotFound, not Conflict.
		err = store.UpdateGroupOrderStatus(ctx, "missing", models.GroupOrderOpen, models.GroupOrderClosed)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("submit and complete record token and external ids atomically", func(t *testing.T) {
		order := newTestGroupOrder("leader-4")
		if err := store.CreateGroupOrder(ctx, order); err != nil {
			t.Fatalf("CreateGroupOrder failed: %v", err)
		}

		if err := store.MarkGroupOrderSubmitted(ctx, order.ID, "token-1"); err != nil {
			t.Fatalf("MarkGroupOrderSubmitted failed: %v", err)
		}
		got, err := store.GetGroupOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("GetGroupOrder failed: %v", err)
		}
		if got.StoredStatus != models.GroupOrderSubmitted || got.IdempotencyToken != "token-1" {
			t.Errorf("after submit: %+v", got)
		}

		if err := store.CompleteGroupOrder(ctx, order.ID, "ext-9", "txn-7"); err != nil {
			t.Fatalf("CompleteGroupOrder failed: %v", err)
		}
		got, err = store.GetGroupOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("GetGroupOrder failed: %v", err)
		}
		if got.StoredStatus != models.GroupOrderCompleted || got.ExternalOrderID != "ext-9" || got.ExternalTransactionID != "txn-7" {
			t.Errorf("after complete: %+v", got)
		}

		// Completing twice must surface the lost race.
		err = store.CompleteGroupOrder(ctx, order.ID, "ext-10", "txn-8")
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})
}

func TestParticipantOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := newTestGroupOrder("leader-1")
	if err := store.CreateGroupOrder(ctx, group); err != nil {
		t.Fatalf("CreateGroupOrder failed: %v", err)
	}

	bag := models.ItemBag{
		SchemaVersion: models.ItemBagSchemaVersion,
		Composites: []models.CompositeItem{
			{
				Size:       "large",
				Components: []string{"chicken", "falafel"},
				Modifiers:  []string{"garlic"},
				Toppings:   []string{"onion"},
				Note:       "no cilantro",
				Quantity:   2,
			},
		},
		Simple: map[string][]models.SimpleItem{
			models.CategoryDrinks: {{Code: "cola", Quantity: 1}},
		},
	}

	t.Run("upsert and get round-trip the item bag losslessly", func(t *testing.T) {
		order := &models.ParticipantOrder{
			GroupOrderID:  group.ID,
			ParticipantID: "alice",
			Items:         bag,
			Status:        models.ParticipantOrderDraft,
		}
		if err := store.UpsertParticipantOrder(ctx, order); err != nil {
			t.Fatalf("UpsertParticipantOrder failed: %v", err)
		}

		got, err := store.GetParticipantOrder(ctx, group.ID, "alice")
		if err != nil {
			t.Fatalf("GetParticipantOrder failed: %v", err)
		}
		if !reflect.DeepEqual(got.Items, bag) {
			t.Errorf("Items = %+v, want %+v", got.Items, bag)
		}
		if got.Status != models.ParticipantOrderDraft {
			t.Errorf("Status = %v, want draft", got.Status)
		}
	})

	t.Run("second upsert replaces, never duplicates", func(t *testing.T) {
		updated := &models.ParticipantOrder{
			GroupOrderID:  group.ID,
			ParticipantID: "alice",
			Items: models.ItemBag{
				SchemaVersion: models.ItemBagSchemaVersion,
				Simple: map[string][]models.SimpleItem{
					models.CategorySides: {{Code: "fries", Quantity: 1}},
				},
			},
			Status: models.ParticipantOrderSubmitted,
		}
		if err := store.UpsertParticipantOrder(ctx, updated); err != nil {
			t.Fatalf("UpsertParticipantOrder failed: %v", err)
		}

		orders, err := store.ListParticipantOrders(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListParticipantOrders failed: %v", err)
		}
		if len(orders) != 1 {
			t.Fatalf("orders = %d, want exactly one per participant", len(orders))
		}
		if orders[0].Status != models.ParticipantOrderSubmitted {
			t.Errorf("Status = %v, want submitted", orders[0].Status)
		}
		if len(orders[0].Items.Composites) != 0 {
			t.Error("expected composites to be replaced")
		}
	})

	t.Run("payment and reimbursement flags persist audit fields", func(t *testing.T) {
		at := time.Now().Unix()
		if err := store.SetPaymentFlag(ctx, group.ID, "alice", true, "alice", at); err != nil {
			t.Fatalf("SetPaymentFlag failed: %v", err)
		}
		if err := store.SetReimbursementFlag(ctx, group.ID, "alice", true, "leader-1", at); err != nil {
			t.Fatalf("SetReimbursementFlag failed: %v", err)
		}

		got, err := store.GetParticipantOrder(ctx, group.ID, "alice")
		if err != nil {
			t.Fatalf("GetParticipantOrder failed: %v", err)
		}
		if !got.Paid || got.PaidBy != "alice" || got.PaidAt != at {
			t.Errorf("payment flag not persisted: %+v", got)
		}
		if !got.Reimbursed || got.ReimbursedBy != "leader-1" {
			t.Errorf("reimbursement flag not persisted: %+v", got)
		}
	})

	t.Run("delete removes the order", func(t *testing.T) {
		if err := store.DeleteParticipantOrder(ctx, group.ID, "alice"); err != nil {
			t.Fatalf("DeleteParticipantOrder failed: %v", err)
		}
		_, err := store.GetParticipantOrder(ctx, group.ID, "alice")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		err = store.DeleteParticipantOrder(ctx, group.ID, "alice")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("double delete err = %v, want ErrNotFound", err)
		}
	})
}
