package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"grouporder/internal/models"
	"grouporder/internal/storage"
)

const participantOrderColumns = `group_order_id, participant_id, status, items_version, items,
	paid, paid_by, paid_at, reimbursed, reimbursed_by, reimbursed_at, created_at, updated_at`

// encodeItemBag serializes the bag and returns the schema version stored
// alongside it. The version column gates decoding so item-shape changes never
// silently corrupt old rows.
func encodeItemBag(bag models.ItemBag) (int, string, error) {
	if bag.SchemaVersion == 0 {
		bag.SchemaVersion = models.ItemBagSchemaVersion
	}
	raw, err := json.Marshal(bag)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encode item bag: %w", err)
	}
	return bag.SchemaVersion, string(raw), nil
}

func decodeItemBag(version int, raw string) (models.ItemBag, error) {
	if version != models.ItemBagSchemaVersion {
		return models.ItemBag{}, fmt.Errorf("unsupported item bag schema version %d", version)
	}
	var bag models.ItemBag
	if err := json.Unmarshal([]byte(raw), &bag); err != nil {
		return models.ItemBag{}, fmt.Errorf("failed to decode item bag: %w", err)
	}
	bag.SchemaVersion = version
	return bag, nil
}

// UpsertParticipantOrder creates or replaces the one order for
// (GroupOrderID, ParticipantID). The primary key enforces the one-per-pair
// invariant; ON CONFLICT preserves created_at and the money flags.
func (s *SQLiteStore) UpsertParticipantOrder(ctx context.Context, order *models.ParticipantOrder) error {
	now := time.Now().Unix()
	if order.CreatedAt == 0 {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.ParticipantOrderDraft
	}

	version, raw, err := encodeItemBag(order.Items)
	if err != nil {
		return err
	}
	order.Items.SchemaVersion = version

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO participant_orders (`+participantOrderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_order_id, participant_id) DO UPDATE SET
		     status = excluded.status,
		     items_version = excluded.items_version,
		     items = excluded.items,
		     updated_at = excluded.updated_at`,
		order.GroupOrderID, order.ParticipantID, string(order.Status), version, raw,
		boolToInt(order.Paid), order.PaidBy, order.PaidAt,
		boolToInt(order.Reimbursed), order.ReimbursedBy, order.ReimbursedAt,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert participant order: %w", err)
	}
	return nil
}

// GetParticipantOrder retrieves one participant's order within a group.
func (s *SQLiteStore) GetParticipantOrder(ctx context.Context, groupOrderID, participantID string) (*models.ParticipantOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+participantOrderColumns+` FROM participant_orders
		 WHERE group_order_id = ? AND participant_id = ?`,
		groupOrderID, participantID)
	return scanParticipantOrder(row)
}

// ListParticipantOrders retrieves every participant order of a group, ordered
// by participant for deterministic basket assembly.
func (s *SQLiteStore) ListParticipantOrders(ctx context.Context, groupOrderID string) ([]*models.ParticipantOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+participantOrderColumns+` FROM participant_orders
		 WHERE group_order_id = ? ORDER BY participant_id`,
		groupOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participant orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.ParticipantOrder
	for rows.Next() {
		order, err := scanParticipantOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant orders: %w", err)
	}
	return orders, nil
}

// DeleteParticipantOrder removes one participant's order.
func (s *SQLiteStore) DeleteParticipantOrder(ctx context.Context, groupOrderID, participantID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM participant_orders WHERE group_order_id = ? AND participant_id = ?`,
		groupOrderID, participantID)
	if err != nil {
		return fmt.Errorf("failed to delete participant order: %w", err)
	}
	return affectedOrNotFound(res)
}

// UpdateParticipantStatus sets the draft/submitted flag.
func (s *SQLiteStore) UpdateParticipantStatus(ctx context.Context, groupOrderID, participantID string, st models.ParticipantOrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE participant_orders SET status = ?, updated_at = ?
		 WHERE group_order_id = ? AND participant_id = ?`,
		string(st), time.Now().Unix(), groupOrderID, participantID)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	return affectedOrNotFound(res)
}

// SetPaymentFlag records whether the participant paid their share.
func (s *SQLiteStore) SetPaymentFlag(ctx context.Context, groupOrderID, participantID string, paid bool, by string, at int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE participant_orders SET paid = ?, paid_by = ?, paid_at = ?, updated_at = ?
		 WHERE group_order_id = ? AND participant_id = ?`,
		boolToInt(paid), by, at, time.Now().Unix(), groupOrderID, participantID)
	if err != nil {
		return fmt.Errorf("failed to set payment flag: %w", err)
	}
	return affectedOrNotFound(res)
}

// SetReimbursementFlag records whether the leader reimbursed the participant.
func (s *SQLiteStore) SetReimbursementFlag(ctx context.Context, groupOrderID, participantID string, reimbursed bool, by string, at int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE participant_orders SET reimbursed = ?, reimbursed_by = ?, reimbursed_at = ?, updated_at = ?
		 WHERE group_order_id = ? AND participant_id = ?`,
		boolToInt(reimbursed), by, at, time.Now().Unix(), groupOrderID, participantID)
	if err != nil {
		return fmt.Errorf("failed to set reimbursement flag: %w", err)
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanParticipantOrder(row rowScanner) (*models.ParticipantOrder, error) {
	order := &models.ParticipantOrder{}
	var (
		st      string
		version int
		raw     string
		paid    int
		reimb   int
	)
	err := row.Scan(
		&order.GroupOrderID, &order.ParticipantID, &st, &version, &raw,
		&paid, &order.PaidBy, &order.PaidAt,
		&reimb, &order.ReimbursedBy, &order.ReimbursedAt,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan participant order: %w", err)
	}
	order.Status = models.ParticipantOrderStatus(st)
	order.Paid = paid != 0
	order.Reimbursed = reimb != 0
	order.Items, err = decodeItemBag(version, raw)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
