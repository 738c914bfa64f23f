/*
users.go - User and wallet-directory persistence

The wallet directory is the store-side half of onboarding: every
company gets exactly one master wallet and every user exactly one
wallet, enforced by a unique (owner_type, owner_id) index. The reward
engine resolves addresses through WalletAddress.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caohoangphucs/ATHENA/ledger"
	"github.com/caohoangphucs/ATHENA/reward"
)

// CreateUser inserts a user and returns it with the assigned id.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (company_id, full_name, email, phone, segment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.CompanyID, u.FullName, u.Email, nullString(u.Phone), nullString(u.Segment),
		u.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser returns a user by id, or nil if absent.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u         User
		phone     sql.NullString
		segment   sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, full_name, email, phone, segment, created_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.CompanyID, &u.FullName, &u.Email, &phone, &segment, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Phone = phone.String
	u.Segment = segment.String
	t, _ := time.Parse(time.RFC3339, createdAt)
	u.CreatedAt = t
	return &u, nil
}

// UpdateUser applies non-empty fields and returns the updated user.
func (s *Store) UpdateUser(ctx context.Context, id int64, fullName, phone, segment *string) (*User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil || u == nil {
		return u, err
	}

	if fullName != nil {
		u.FullName = *fullName
	}
	if phone != nil {
		u.Phone = *phone
	}
	if segment != nil {
		u.Segment = *segment
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET full_name = ?, phone = ?, segment = ? WHERE id = ?`,
		u.FullName, nullString(u.Phone), nullString(u.Segment), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// =============================================================================
// WALLET DIRECTORY
// =============================================================================

// CreateWallet registers the one wallet for an owner. A second wallet
// for the same owner violates the unique index and fails.
func (s *Store) CreateWallet(ctx context.Context, w Wallet) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallets (id, owner_type, owner_id, address, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.OwnerType, w.OwnerID, w.Address, w.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return Wallet{}, fmt.Errorf("wallet already exists for %s %d", w.OwnerType, w.OwnerID)
		}
		return Wallet{}, fmt.Errorf("failed to insert wallet: %w", err)
	}
	return w, nil
}

// GetWallet returns the wallet for an owner, or nil if absent.
func (s *Store) GetWallet(ctx context.Context, ownerType string, ownerID int64) (*Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		w         Wallet
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_type, owner_id, address, created_at
		FROM wallets WHERE owner_type = ? AND owner_id = ?`,
		ownerType, ownerID,
	).Scan(&w.ID, &w.OwnerType, &w.OwnerID, &w.Address, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	t, _ := time.Parse(time.RFC3339, createdAt)
	w.CreatedAt = t
	return &w, nil
}

// ListWalletAddresses returns every wallet address in the directory.
// Boot-time chain rehydration is the only caller.
func (s *Store) ListWalletAddresses(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT address FROM wallets")
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

// WalletAddress implements reward.WalletDirectory.
func (s *Store) WalletAddress(ctx context.Context, owner reward.OwnerType, ownerID int64) (ledger.Address, error) {
	w, err := s.GetWallet(ctx, string(owner), ownerID)
	if err != nil {
		return "", err
	}
	if w == nil {
		return "", &reward.WalletNotFoundError{Owner: owner, OwnerID: ownerID}
	}
	return ledger.Address(w.Address), nil
}
