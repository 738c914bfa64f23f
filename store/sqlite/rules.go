/*
rules.go - Reward rule and contract persistence

ActiveRules is the reward engine's RuleSource: exact match on
(company, action), inactive rules excluded, ordered by id so repeated
computations see the same sequence. Rules are soft-deactivated via
SetRuleActive; only company teardown removes rows.
*/
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/caohoangphucs/ATHENA/reward"
)

// CreateRule inserts a rule and returns it with the assigned id.
func (s *Store) CreateRule(ctx context.Context, r reward.Rule) (reward.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reward_rules (company_id, action, mode, rate, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.CompanyID, r.Action, string(r.Mode), r.Rate.String(), r.Active,
		r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return reward.Rule{}, fmt.Errorf("failed to insert rule: %w", err)
	}

	r.ID, err = res.LastInsertId()
	if err != nil {
		return reward.Rule{}, err
	}
	return r, nil
}

// ActiveRules implements reward.RuleSource.
func (s *Store) ActiveRules(ctx context.Context, companyID int64, action string) ([]reward.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRules(ctx, `
		SELECT id, company_id, action, mode, rate, is_active, created_at
		FROM reward_rules
		WHERE company_id = ? AND action = ? AND is_active = TRUE
		ORDER BY id ASC`, companyID, action)
}

// ListActiveRules returns every active rule of a company.
func (s *Store) ListActiveRules(ctx context.Context, companyID int64) ([]reward.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRules(ctx, `
		SELECT id, company_id, action, mode, rate, is_active, created_at
		FROM reward_rules
		WHERE company_id = ? AND is_active = TRUE
		ORDER BY id ASC`, companyID)
}

// SetRuleActive flips a rule's active flag. Scoped to the owning
// company; returns false when no such rule exists.
func (s *Store) SetRuleActive(ctx context.Context, ruleID, companyID int64, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE reward_rules SET is_active = ? WHERE id = ? AND company_id = ?`,
		active, ruleID, companyID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to toggle rule: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) queryRules(ctx context.Context, query string, args ...any) ([]reward.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []reward.Rule
	for rows.Next() {
		var (
			r         reward.Rule
			mode      string
			rate      string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Action, &mode, &rate, &r.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		r.Mode = reward.Mode(mode)
		r.Rate = parseDecimal(rate)
		t, _ := time.Parse(time.RFC3339, createdAt)
		r.CreatedAt = t
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// =============================================================================
// CONTRACTS
// =============================================================================

// CreateContract inserts a contract and returns it with the id set.
func (s *Store) CreateContract(ctx context.Context, c Contract) (Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts (company_id, name, action, mode, rate, is_active, secret, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CompanyID, c.Name, c.Action, c.Mode, c.Rate.String(), c.Active, c.Secret,
		c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Contract{}, fmt.Errorf("failed to insert contract: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return Contract{}, err
	}
	return c, nil
}

// GetContract returns a contract by id, or nil if absent.
func (s *Store) GetContract(ctx context.Context, id int64) (*Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contracts, err := s.queryContracts(ctx, `
		SELECT id, company_id, name, action, mode, rate, is_active, secret, created_at
		FROM contracts WHERE id = ?`, id)
	if err != nil || len(contracts) == 0 {
		return nil, err
	}
	return &contracts[0], nil
}

// ListContracts returns all contracts of a company, active or not.
func (s *Store) ListContracts(ctx context.Context, companyID int64) ([]Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContracts(ctx, `
		SELECT id, company_id, name, action, mode, rate, is_active, secret, created_at
		FROM contracts WHERE company_id = ? ORDER BY id ASC`, companyID)
}

// ListActiveContracts returns only the enabled contracts of a company.
func (s *Store) ListActiveContracts(ctx context.Context, companyID int64) ([]Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContracts(ctx, `
		SELECT id, company_id, name, action, mode, rate, is_active, secret, created_at
		FROM contracts WHERE company_id = ? AND is_active = TRUE ORDER BY id ASC`, companyID)
}

// SetContractActive flips a contract's enabled flag.
func (s *Store) SetContractActive(ctx context.Context, contractID, companyID int64, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE contracts SET is_active = ? WHERE id = ? AND company_id = ?`,
		active, contractID, companyID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to toggle contract: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) queryContracts(ctx context.Context, query string, args ...any) ([]Contract, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		var (
			c         Contract
			rate      string
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Action, &c.Mode, &rate, &c.Active, &c.Secret, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		c.Rate = parseDecimal(rate)
		t, _ := time.Parse(time.RFC3339, createdAt)
		c.CreatedAt = t
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
