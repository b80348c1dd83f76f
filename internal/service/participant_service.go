package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"grouporder/internal/metrics"
	"grouporder/internal/models"
	"grouporder/internal/notify"
	"grouporder/internal/stock"
	"grouporder/internal/storage"
	"grouporder/internal/validate"
)

// ParticipantOrderService owns per-participant baskets within a group order:
// creation, edits, deletion, the draft/submitted flag, and the money-movement
// flags (paid by participant, reimbursed by leader).
type ParticipantOrderService struct {
	store    storage.Store
	stock    stock.Provider
	notifier notify.Notifier
	now      func() time.Time
}

// NewParticipantOrderService wires the service with its collaborators.
func NewParticipantOrderService(store storage.Store, stockProvider stock.Provider, notifier notify.Notifier) *ParticipantOrderService {
	return &ParticipantOrderService{
		store:    store,
		stock:    stockProvider,
		notifier: notifier,
		now:      time.Now,
	}
}

// Upsert creates or replaces the caller's basket in the group order. Duplicate
// lines merge by deterministic identity, so client retries of the same edit
// are harmless. Empty bags may be saved as drafts but cannot be submitted.
func (s *ParticipantOrderService) Upsert(ctx context.Context, groupOrderID, callerID string, bag models.ItemBag, st models.ParticipantOrderStatus) (*models.ParticipantOrder, error) {
	group, err := s.store.GetGroupOrder(ctx, groupOrderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := validate.Mutation(group, s.now()); err != nil {
		metrics.MutationsTotal.WithLabelValues("not_modifiable").Inc()
		return nil, err
	}

	if st == "" {
		st = models.ParticipantOrderDraft
	}
	bag = validate.NormalizeBag(bag)

	if bag.Empty() {
		if st == models.ParticipantOrderSubmitted {
			metrics.MutationsTotal.WithLabelValues("empty").Inc()
			return nil, ErrEmptyOrder
		}
	} else {
		// Availability is checked against a fresh snapshot on every edit; it is
		// re-checked again before final submission because stock is volatile.
		snapshot, err := s.stock.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch stock snapshot: %w", err)
		}
		if err := validate.Availability([]models.ItemBag{bag}, snapshot); err != nil {
			metrics.MutationsTotal.WithLabelValues("out_of_stock").Inc()
			return nil, err
		}
	}

	existing, err := s.store.GetParticipantOrder(ctx, groupOrderID, callerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	order := &models.ParticipantOrder{
		GroupOrderID:  groupOrderID,
		ParticipantID: callerID,
		Items:         bag,
		Status:        st,
	}
	if existing != nil {
		order.CreatedAt = existing.CreatedAt
		order.Paid = existing.Paid
		order.PaidBy = existing.PaidBy
		order.PaidAt = existing.PaidAt
		order.Reimbursed = existing.Reimbursed
		order.ReimbursedBy = existing.ReimbursedBy
		order.ReimbursedAt = existing.ReimbursedAt
	}
	if err := s.store.UpsertParticipantOrder(ctx, order); err != nil {
		metrics.MutationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.MutationsTotal.WithLabelValues("accepted").Inc()
	slog.Info("participant order upserted",
		"group_order_id", groupOrderID,
		"participant_id", callerID,
		"status", order.Status,
		"created", existing == nil,
	)
	if existing == nil {
		s.notifier.Notify(ctx, notify.Notification{
			RecipientID: group.LeaderID,
			Title:       "New order",
			Body:        "A participant joined the group order",
			Tag:         "participant_joined",
			Data:        map[string]string{"group_order_id": groupOrderID, "participant_id": callerID},
		})
	}
	return order, nil
}

// Get returns one participant's order. Only the owner and the group leader
// may read it.
func (s *ParticipantOrderService) Get(ctx context.Context, groupOrderID, participantID, callerID string) (*models.ParticipantOrder, error) {
	group, err := s.store.GetGroupOrder(ctx, groupOrderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if callerID != participantID && callerID != group.LeaderID {
		return nil, ErrUnauthorized
	}
	order, err := s.store.GetParticipantOrder(ctx, groupOrderID, participantID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return order, nil
}

// List returns every participant order of the group. Group orders are shared
// by link, so any authenticated caller who knows the id may list them.
func (s *ParticipantOrderService) List(ctx context.Context, groupOrderID string) ([]*models.ParticipantOrder, error) {
	if _, err := s.store.GetGroupOrder(ctx, groupOrderID); err != nil {
		return nil, mapStoreErr(err)
	}
	orders, err := s.store.ListParticipantOrders(ctx, groupOrderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return orders, nil
}

// Delete removes a participant's order. Allowed for the owner and for the
// group leader, and only while the group order accepts mutations.
func (s *ParticipantOrderService) Delete(ctx context.Context, groupOrderID, participantID, callerID string) error {
	group, err := s.store.GetGroupOrder(ctx, groupOrderID)
	if err != nil {
		return mapStoreErr(err)
	}
	if callerID != participantID && callerID != group.LeaderID {
		return ErrUnauthorized
	}
	if err := validate.Mutation(group, s.now()); err != nil {
		return err
	}
	if err := s.store.DeleteParticipantOrder(ctx, groupOrderID, participantID); err != nil {
		return mapStoreErr(err)
	}
	slog.Info("participant order deleted",
		"group_order_id", groupOrderID,
		"participant_id", participantID,
		"deleted_by", callerID,
	)
	return nil
}

// SetStatus flips the caller's own draft/submitted flag. Submitting an empty
// bag is rejected; the group order must still accept mutations.
func (s *ParticipantOrderService) SetStatus(ctx context.Context, groupOrderID, callerID string, st models.ParticipantOrderStatus) error {
	group, err := s.store.GetGroupOrder(ctx, groupOrderID)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := validate.Mutation(group, s.now()); err != nil {
		return err
	}
	order, err := s.store.GetParticipantOrder(ctx, groupOrderID, callerID)
	if err != nil {
		return mapStoreErr(err)
	}
	if st == models.ParticipantOrderSubmitted && order.Items.Empty() {
		return ErrEmptyOrder
	}
	return mapStoreErr(s.store.UpdateParticipantStatus(ctx, groupOrderID, callerID, st))
}

// SetPaymentFlag records that the participant settled their share. Only the
// order's own owner may flip it; it is independent of the group order status
// so late payments after completion still get recorded.
func (s *ParticipantOrderService) SetPaymentFlag(ctx context.Context, groupOrderID, participantID, callerID string, paid bool) error {
	if callerID != participantID {
		return ErrUnauthorized
	}
	group, err := s.store.GetGroupOrder(ctx, groupOrderID)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := s.store.SetPaymentFlag(ctx, groupOrderID, participantID, paid, callerID, s.now().Unix()); err != nil {
		return mapStoreErr(err)
	}
	slog.Info("payment flag updated",
		"group_order_id", groupOrderID,
		"participant_id", participantID,
		"paid", paid,
	)
	s.notifier.Notify(ctx, notify.Notification{
		RecipientID: group.LeaderID,
		Title:       "Payment update",
		Body:        "A participant updated their payment status",
		Tag:         "payment_flagged",
		Data:        map[string]string{"group_order_id": groupOrderID, "participant_id": participantID},
	})
	return nil
}

// SetReimbursementFlag records that the leader settled money back to the
// participant. Leader-only; independent of the group order status.
func (s *ParticipantOrderService) SetReimbursementFlag(ctx context.Context, groupOrderID, participantID, callerID string, reimbursed bool) error {
	group, err := s.store.GetGroupOrder(ctx, groupOrderID)
	if err != nil {
		return mapStoreErr(err)
	}
	if callerID != group.LeaderID {
		return ErrUnauthorized
	}
	if err := s.store.SetReimbursementFlag(ctx, groupOrderID, participantID, reimbursed, callerID, s.now().Unix()); err != nil {
		return mapStoreErr(err)
	}
	slog.Info("reimbursement flag updated",
		"group_order_id", groupOrderID,
		"participant_id", participantID,
		"reimbursed", reimbursed,
	)
	s.notifier.Notify(ctx, notify.Notification{
		RecipientID: participantID,
		Title:       "Reimbursement update",
		Body:        "The group leader updated your reimbursement status",
		Tag:         "reimbursement_flagged",
		Data:        map[string]string{"group_order_id": groupOrderID},
	})
	return nil
}
