/*
interactions.go - Interaction and transfer-record persistence

Both tables are append-only. RecordTransfer is the reward engine's
TransferLog; manual wallet transfers and demo seeding write through
the same path so the receipt log stays complete.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caohoangphucs/ATHENA/ledger"
	"github.com/caohoangphucs/ATHENA/reward"
)

// CreateInteraction appends an interaction and returns it with the
// assigned id.
func (s *Store) CreateInteraction(ctx context.Context, it Interaction) (Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}

	var amount sql.NullString
	if it.Amount != nil {
		amount = sql.NullString{String: it.Amount.String(), Valid: true}
	}
	var annotations sql.NullString
	if !it.Annotations.IsZero() {
		b, _ := json.Marshal(it.Annotations)
		annotations = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (user_id, company_id, service, action, amount, annotations_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.UserID, it.CompanyID, it.Service, it.Action, amount, annotations,
		it.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Interaction{}, fmt.Errorf("failed to insert interaction: %w", err)
	}

	it.ID, err = res.LastInsertId()
	if err != nil {
		return Interaction{}, err
	}
	return it, nil
}

// ListUserInteractions returns a user's interactions, newest first.
func (s *Store) ListUserInteractions(ctx context.Context, userID int64) ([]Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, company_id, service, action, amount, annotations_json, created_at
		FROM interactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var (
			it          Interaction
			amount      sql.NullString
			annotations sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.CompanyID, &it.Service, &it.Action, &amount, &annotations, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		if amount.Valid {
			d := parseDecimal(amount.String)
			it.Amount = &d
		}
		if annotations.Valid {
			json.Unmarshal([]byte(annotations.String), &it.Annotations)
		}
		t, _ := time.Parse(time.RFC3339, createdAt)
		it.CreatedAt = t
		interactions = append(interactions, it)
	}
	return interactions, rows.Err()
}

// =============================================================================
// TRANSFER RECEIPT LOG
// =============================================================================

// RecordTransfer implements reward.TransferLog.
func (s *Store) RecordTransfer(ctx context.Context, rec reward.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var from sql.NullString
	if rec.FromWallet != nil {
		from = sql.NullString{String: string(*rec.FromWallet), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_transfers (id, tx_hash, from_wallet, to_wallet, amount, memo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.TxHash, from, string(rec.ToWallet), rec.Amount.String(),
		nullString(rec.Memo), rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}

// ListTransfersByWallet returns every receipt where the address is the
// source or the destination, newest first. Wallet audit display.
func (s *Store) ListTransfersByWallet(ctx context.Context, addr ledger.Address) ([]TransferRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tx_hash, from_wallet, to_wallet, amount, memo, created_at
		FROM token_transfers
		WHERE from_wallet = ? OR to_wallet = ?
		ORDER BY created_at DESC, id DESC`, string(addr), string(addr))
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []TransferRow
	for rows.Next() {
		var (
			tr        TransferRow
			from      sql.NullString
			amount    string
			memo      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&tr.ID, &tr.TxHash, &from, &tr.ToWallet, &amount, &memo, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		if from.Valid {
			f := from.String
			tr.FromWallet = &f
		}
		tr.Amount = parseDecimal(amount)
		tr.Memo = memo.String
		t, _ := time.Parse(time.RFC3339, createdAt)
		tr.CreatedAt = t
		transfers = append(transfers, tr)
	}
	return transfers, rows.Err()
}
