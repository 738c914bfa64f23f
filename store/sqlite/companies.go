/*
companies.go - Company persistence

Includes the whole-company teardown, the only flow that hard-deletes
anything: it removes the company plus its users, wallets, rules,
contracts, interactions, and every transfer touching its wallets, all
in one database transaction.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ErrDuplicateAPIKey is returned when an api key collides. With
// 24 random bytes behind each key this indicates a caller bug, not
// bad luck.
var ErrDuplicateAPIKey = fmt.Errorf("duplicate api key")

// CreateCompany inserts a company and returns it with the assigned id.
func (s *Store) CreateCompany(ctx context.Context, c Company) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supported, _ := json.Marshal(c.SupportedActions)
	categories, _ := json.Marshal(c.ServiceCategories)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO companies
		(name, api_key, description, sector, website, phone, email, address,
		 business_license, tax_code, supported_actions_json, service_categories_json,
		 is_active, tier, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.APIKey,
		nullString(c.Description), nullString(c.Sector), nullString(c.Website),
		nullString(c.Phone), nullString(c.Email), nullString(c.Address),
		nullString(c.BusinessLicense), nullString(c.TaxCode),
		jsonOrNull(c.SupportedActions, supported), jsonOrNull(c.ServiceCategories, categories),
		c.Active, nullString(c.Tier), c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return Company{}, ErrDuplicateAPIKey
		}
		return Company{}, fmt.Errorf("failed to insert company: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return Company{}, err
	}
	return c, nil
}

// GetCompany returns a company by id, or nil if absent.
func (s *Store) GetCompany(ctx context.Context, id int64) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryCompany(ctx, "WHERE id = ?", id)
}

// GetCompanyByAPIKey returns the company owning the key, or nil.
// This is the authentication lookup; it runs on every request.
func (s *Store) GetCompanyByAPIKey(ctx context.Context, apiKey string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryCompany(ctx, "WHERE api_key = ?", apiKey)
}

// HasCompanies reports whether any company exists. Used by the dev
// seeder to stay idempotent.
func (s *Store) HasCompanies(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies").Scan(&count)
	return count > 0, err
}

// UpdateCompany applies the non-nil fields of upd and stamps
// updated_at. Returns the updated company.
func (s *Store) UpdateCompany(ctx context.Context, id int64, upd CompanyUpdate) (*Company, error) {
	s.mu.Lock()

	existing, err := s.queryCompany(ctx, "WHERE id = ?", id)
	if err != nil || existing == nil {
		s.mu.Unlock()
		return existing, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&existing.Name, upd.Name)
	apply(&existing.Description, upd.Description)
	apply(&existing.Sector, upd.Sector)
	apply(&existing.Website, upd.Website)
	apply(&existing.Phone, upd.Phone)
	apply(&existing.Email, upd.Email)
	apply(&existing.Address, upd.Address)
	apply(&existing.BusinessLicense, upd.BusinessLicense)
	apply(&existing.TaxCode, upd.TaxCode)
	apply(&existing.Tier, upd.Tier)
	if upd.SupportedActions != nil {
		existing.SupportedActions = upd.SupportedActions
	}
	if upd.ServiceCategories != nil {
		existing.ServiceCategories = upd.ServiceCategories
	}
	if upd.Active != nil {
		existing.Active = *upd.Active
	}
	now := time.Now().UTC()
	existing.UpdatedAt = &now

	supported, _ := json.Marshal(existing.SupportedActions)
	categories, _ := json.Marshal(existing.ServiceCategories)

	_, err = s.db.ExecContext(ctx, `
		UPDATE companies SET
			name = ?, description = ?, sector = ?, website = ?, phone = ?,
			email = ?, address = ?, business_license = ?, tax_code = ?,
			supported_actions_json = ?, service_categories_json = ?,
			is_active = ?, tier = ?, updated_at = ?
		WHERE id = ?`,
		existing.Name, nullString(existing.Description), nullString(existing.Sector),
		nullString(existing.Website), nullString(existing.Phone), nullString(existing.Email),
		nullString(existing.Address), nullString(existing.BusinessLicense), nullString(existing.TaxCode),
		jsonOrNull(existing.SupportedActions, supported), jsonOrNull(existing.ServiceCategories, categories),
		existing.Active, nullString(existing.Tier), now.Format(time.RFC3339),
		id,
	)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return existing, nil
}

// DeleteCompanyCascade removes the company and everything it owns in
// one transaction: users, wallets (company and user), rules,
// contracts, interactions, and transfers touching any of its wallet
// addresses. Returns the deleted wallet addresses so the caller can
// drop their chain balances too.
func (s *Store) DeleteCompanyCascade(ctx context.Context, companyID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin teardown: %w", err)
	}
	defer tx.Rollback()

	// Collect every wallet address owned by the company or its users.
	rows, err := tx.QueryContext(ctx, `
		SELECT address FROM wallets
		WHERE (owner_type = 'company' AND owner_id = ?)
		   OR (owner_type = 'user' AND owner_id IN (SELECT id FROM users WHERE company_id = ?))`,
		companyID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect wallets: %w", err)
	}
	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			rows.Close()
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	steps := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM token_transfers WHERE from_wallet IN (SELECT address FROM wallets WHERE (owner_type = 'company' AND owner_id = ?) OR (owner_type = 'user' AND owner_id IN (SELECT id FROM users WHERE company_id = ?)))
		   OR to_wallet IN (SELECT address FROM wallets WHERE (owner_type = 'company' AND owner_id = ?) OR (owner_type = 'user' AND owner_id IN (SELECT id FROM users WHERE company_id = ?)))`,
			[]any{companyID, companyID, companyID, companyID}},
		{`DELETE FROM interactions WHERE company_id = ?`, []any{companyID}},
		{`DELETE FROM reward_rules WHERE company_id = ?`, []any{companyID}},
		{`DELETE FROM contracts WHERE company_id = ?`, []any{companyID}},
		{`DELETE FROM wallets WHERE (owner_type = 'company' AND owner_id = ?) OR (owner_type = 'user' AND owner_id IN (SELECT id FROM users WHERE company_id = ?))`,
			[]any{companyID, companyID}},
		{`DELETE FROM users WHERE company_id = ?`, []any{companyID}},
		{`DELETE FROM companies WHERE id = ?`, []any{companyID}},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
			return nil, fmt.Errorf("teardown step failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (s *Store) queryCompany(ctx context.Context, where string, args ...any) (*Company, error) {
	query := `
		SELECT id, name, api_key, description, sector, website, phone, email, address,
		       business_license, tax_code, supported_actions_json, service_categories_json,
		       is_active, tier, created_at, updated_at
		FROM companies ` + where

	var (
		c          Company
		desc       sql.NullString
		sector     sql.NullString
		website    sql.NullString
		phone      sql.NullString
		email      sql.NullString
		address    sql.NullString
		license    sql.NullString
		taxCode    sql.NullString
		supported  sql.NullString
		categories sql.NullString
		tier       sql.NullString
		createdAt  string
		updatedAt  sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.Name, &c.APIKey, &desc, &sector, &website, &phone, &email, &address,
		&license, &taxCode, &supported, &categories, &c.Active, &tier, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan company: %w", err)
	}

	c.Description = desc.String
	c.Sector = sector.String
	c.Website = website.String
	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	c.BusinessLicense = license.String
	c.TaxCode = taxCode.String
	c.Tier = tier.String
	if supported.Valid {
		json.Unmarshal([]byte(supported.String), &c.SupportedActions)
	}
	if categories.Valid {
		json.Unmarshal([]byte(categories.String), &c.ServiceCategories)
	}
	t, _ := time.Parse(time.RFC3339, createdAt)
	c.CreatedAt = t
	if updatedAt.Valid {
		u, _ := time.Parse(time.RFC3339, updatedAt.String)
		c.UpdatedAt = &u
	}

	return &c, nil
}

func jsonOrNull(list []string, marshaled []byte) sql.NullString {
	if list == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(marshaled), Valid: true}
}
