package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"grouporder/internal/backend"
	"grouporder/internal/identity"
	"grouporder/internal/metrics"
	"grouporder/internal/models"
	"grouporder/internal/notify"
	"grouporder/internal/status"
	"grouporder/internal/stock"
	"grouporder/internal/storage"
	"grouporder/internal/validate"
)

// GroupOrderService owns the group-order lifecycle: creation, manual close and
// reopen, finalization and the backend submission that turns N participant
// baskets into one external order.
type GroupOrderService struct {
	store    storage.Store
	stock    stock.Provider
	client   backend.Client
	notifier notify.Notifier
	now      func() time.Time
}

// NewGroupOrderService wires the service with its collaborators.
func NewGroupOrderService(store storage.Store, stockProvider stock.Provider, client backend.Client, notifier notify.Notifier) *GroupOrderService {
	return &GroupOrderService{
		store:    store,
		stock:    stockProvider,
		client:   client,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create opens a new group order for the given leader and window.
func (s *GroupOrderService) Create(ctx context.Context, leaderID, name string, startTime, endTime int64, deliveryFee float64) (*models.GroupOrder, error) {
	if startTime >= endTime {
		return nil, ErrInvalidWindow
	}

	order := &models.GroupOrder{
		LeaderID:     leaderID,
		Name:         name,
		StartTime:    startTime,
		EndTime:      endTime,
		StoredStatus: models.GroupOrderOpen,
		DeliveryFee:  deliveryFee,
	}
	if err := s.store.CreateGroupOrder(ctx, order); err != nil {
		slog.Error("create group order failed", "leader_id", leaderID, "error", err)
		return nil, err
	}

	slog.Info("group order created", "group_order_id", order.ID, "leader_id", leaderID, "end_time", endTime)
	s.notifier.Notify(ctx, notify.Notification{
		RecipientID: leaderID,
		Title:       "Group order open",
		Body:        fmt.Sprintf("%s is collecting orders", order.Name),
		Tag:         "group_created",
		Data:        map[string]string{"group_order_id": order.ID},
	})
	return order, nil
}

// Get returns the group order together with its effective status for "now".
func (s *GroupOrderService) Get(ctx context.Context, id string) (*models.GroupOrder, models.GroupOrderStatus, error) {
	order, err := s.store.GetGroupOrder(ctx, id)
	if err != nil {
		return nil, "", mapStoreErr(err)
	}
	return order, status.Effective(order, s.now()), nil
}

// ListByLeader returns all group orders owned by the caller, newest first.
func (s *GroupOrderService) ListByLeader(ctx context.Context, leaderID string) ([]*models.GroupOrder, error) {
	return s.store.ListGroupOrdersByLeader(ctx, leaderID)
}

// EffectiveStatus computes the status of an already-loaded order for "now",
// without another store read.
func (s *GroupOrderService) EffectiveStatus(order *models.GroupOrder) models.GroupOrderStatus {
	return status.Effective(order, s.now())
}

// Close is the leader's manual OPEN→CLOSED transition; it blocks further
// participant edits and is sticky.
func (s *GroupOrderService) Close(ctx context.Context, id, callerID string) error {
	order, err := s.loadForLeader(ctx, id, callerID)
	if err != nil {
		return err
	}
	if eff := status.Effective(order, s.now()); eff != models.GroupOrderOpen {
		return &InvalidStatusError{Effective: eff}
	}
	if err := s.store.UpdateGroupOrderStatus(ctx, id, models.GroupOrderOpen, models.GroupOrderClosed); err != nil {
		return mapStoreErr(err)
	}

	slog.Info("group order closed", "group_order_id", id, "leader_id", callerID)
	s.notifyParticipants(ctx, order, "Group order closed", "Orders can no longer be changed", "group_closed")
	return nil
}

// Reopen undoes a manual close while the window is still running. It never
// extends the window: once now is past endTime only the transitions in the
// lifecycle table apply, and expired orders stay expired.
func (s *GroupOrderService) Reopen(ctx context.Context, id, callerID string) error {
	order, err := s.loadForLeader(ctx, id, callerID)
	if err != nil {
		return err
	}
	now := s.now()
	if order.StoredStatus != models.GroupOrderClosed || now.Unix() > order.EndTime {
		return &InvalidStatusError{Effective: status.Effective(order, now)}
	}
	if err := s.store.UpdateGroupOrderStatus(ctx, id, models.GroupOrderClosed, models.GroupOrderOpen); err != nil {
		return mapStoreErr(err)
	}

	slog.Info("group order reopened", "group_order_id", id, "leader_id", callerID)
	s.notifyParticipants(ctx, order, "Group order reopened", "Orders can be changed again", "group_reopened")
	return nil
}

// Finalize freezes participant edits and mints the idempotency token for the
// submission cycle. Only effectively open orders can be finalized; expired
// ones cannot.
func (s *GroupOrderService) Finalize(ctx context.Context, id, callerID string) (*models.GroupOrder, error) {
	order, err := s.loadForLeader(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if eff := status.Effective(order, s.now()); eff != models.GroupOrderOpen {
		return nil, &InvalidStatusError{Effective: eff}
	}

	token := uuid.New().String()
	if err := s.store.MarkGroupOrderSubmitted(ctx, id, token); err != nil {
		return nil, mapStoreErr(err)
	}
	order.StoredStatus = models.GroupOrderSubmitted
	order.IdempotencyToken = token

	slog.Info("group order finalized", "group_order_id", id, "leader_id", callerID)
	s.notifyParticipants(ctx, order, "Group order finalized", "The order is being placed", "group_submitted")
	return order, nil
}

// SubmitToBackend delivers the frozen aggregate to the external ordering
// system and, on acceptance, records completion and the external identifiers
// in a single write. On failure the order stays submitted so the leader can
// retry without re-opening participant edits; retries reuse the idempotency
// token minted at finalization.
func (s *GroupOrderService) SubmitToBackend(ctx context.Context, id, callerID string, delivery backend.DeliveryDetails) (*models.GroupOrder, error) {
	order, err := s.loadForLeader(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if order.StoredStatus != models.GroupOrderSubmitted {
		return nil, &InvalidStatusError{Effective: status.Effective(order, s.now())}
	}

	all, err := s.store.ListParticipantOrders(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	// Abandoned drafts are excluded from the shipped basket, not an error.
	var shipped []*models.ParticipantOrder
	for _, po := range all {
		if po.Status == models.ParticipantOrderSubmitted && !po.Items.Empty() {
			shipped = append(shipped, po)
		}
	}
	if len(shipped) == 0 {
		metrics.SubmissionsTotal.WithLabelValues("nothing_to_submit").Inc()
		return nil, ErrNothingToSubmit
	}

	// Stock went stale since the last edit? Re-check the whole union before
	// shipping; no partial shipment.
	snapshot, err := s.stock.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock snapshot: %w", err)
	}
	bags := make([]models.ItemBag, len(shipped))
	for i, po := range shipped {
		bags[i] = po.Items
	}
	if err := validate.Availability(bags, snapshot); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("out_of_stock").Inc()
		slog.Warn("submission blocked by stale stock", "group_order_id", id, "error", err)
		return nil, err
	}

	basket := buildBasket(order, delivery, shipped)

	started := s.now()
	receipt, err := s.client.Submit(ctx, basket, order.IdempotencyToken)
	metrics.BackendDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		var rejected *backend.RejectedError
		outcome := "unknown"
		if errors.As(err, &rejected) {
			outcome = "rejected"
		}
		metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
		slog.Warn("backend submission failed",
			"group_order_id", id,
			"outcome", outcome,
			"error", err,
		)
		// Stored status stays submitted; the leader retries with the same token.
		return nil, err
	}

	if err := s.store.CompleteGroupOrder(ctx, id, receipt.OrderID, receipt.TransactionID); err != nil {
		return nil, mapStoreErr(err)
	}
	order.StoredStatus = models.GroupOrderCompleted
	order.ExternalOrderID = receipt.OrderID
	order.ExternalTransactionID = receipt.TransactionID

	metrics.SubmissionsTotal.WithLabelValues("completed").Inc()
	slog.Info("group order completed",
		"group_order_id", id,
		"external_order_id", receipt.OrderID,
		"participants", len(shipped),
		"lines", len(basket.Lines),
	)
	s.notifyParticipants(ctx, order, "Order placed", "The group order was accepted by the restaurant", "group_completed")
	return order, nil
}

// loadForLeader fetches the group order and verifies the caller owns it.
func (s *GroupOrderService) loadForLeader(ctx context.Context, id, callerID string) (*models.GroupOrder, error) {
	order, err := s.store.GetGroupOrder(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if order.LeaderID != callerID {
		return nil, ErrUnauthorized
	}
	return order, nil
}

// notifyParticipants fans a notification out to every participant of the
// group. Best-effort by contract of the notifier.
func (s *GroupOrderService) notifyParticipants(ctx context.Context, order *models.GroupOrder, title, body, tag string) {
	participants, err := s.store.ListParticipantOrders(ctx, order.ID)
	if err != nil {
		slog.Warn("listing participants for notification failed", "group_order_id", order.ID, "error", err)
		return
	}
	for _, po := range participants {
		s.notifier.Notify(ctx, notify.Notification{
			RecipientID: po.ParticipantID,
			Title:       title,
			Body:        body,
			Tag:         tag,
			Data:        map[string]string{"group_order_id": order.ID},
		})
	}
}

// buildBasket flattens every shipped participant bag into one external order.
// Quantity is explicit per line; identical configurations from different
// participants stay separate lines so the audit of who ordered what survives.
func buildBasket(order *models.GroupOrder, delivery backend.DeliveryDetails, shipped []*models.ParticipantOrder) backend.Basket {
	basket := backend.Basket{
		GroupOrderID: order.ID,
		Delivery:     delivery,
		DeliveryFee:  order.DeliveryFee,
	}

	for _, po := range shipped {
		for _, item := range po.Items.Composites {
			basket.Lines = append(basket.Lines, backend.Line{
				ParticipantID: po.ParticipantID,
				ItemID:        identity.Composite(item),
				Category:      "meal",
				Size:          item.Size,
				Components:    item.Components,
				Modifiers:     item.Modifiers,
				Toppings:      item.Toppings,
				Note:          item.Note,
				Quantity:      item.Quantity,
			})
		}
		// Category order is sorted so the basket is deterministic for a given
		// set of participant orders.
		categories := make([]string, 0, len(po.Items.Simple))
		for category := range po.Items.Simple {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			for _, item := range po.Items.Simple[category] {
				basket.Lines = append(basket.Lines, backend.Line{
					ParticipantID: po.ParticipantID,
					ItemID:        identity.Simple(category, item),
					Category:      category,
					Code:          item.Code,
					Quantity:      item.Quantity,
				})
			}
		}
	}
	return basket
}
