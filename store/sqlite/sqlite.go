/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Stores everything that must survive a restart: companies, users,
  wallet directory entries, reward rules, interactions, token transfer
  records, and contracts. Implements the reward engine's collaborator
  interfaces (RuleSource, WalletDirectory, TransferLog).

WHAT IS NOT STORED:
  Chain balances. The mock chain is in-memory by design; the
  token_transfers table keeps the auditable history of movements even
  though balances themselves reset with the process.

APPEND-ONLY TABLES:
  token_transfers and interactions are never updated or deleted outside
  whole-company teardown and the dev reset. Reward rules are
  soft-deactivated via is_active, not deleted.

CONCURRENCY:
  sync.RWMutex around the connection. SQLite runs in WAL mode so
  readers don't block.

MIGRATION:
  Schema is created on New(). For a real deployment use a versioned
  migration tool; auto-migrate keeps the demo single-binary.

SEE ALSO:
  - reward/types.go: the interfaces implemented here
  - api/: the handlers driving this store
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Store implements all persistence interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single connection: SQLite serializes writers anyway, and a pool
	// of connections against ":memory:" would each see their own db.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Companies (tenants; authenticated by api_key)
	CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		api_key TEXT NOT NULL UNIQUE,
		description TEXT,
		sector TEXT,
		website TEXT,
		phone TEXT,
		email TEXT,
		address TEXT,
		business_license TEXT,
		tax_code TEXT,
		supported_actions_json TEXT,
		service_categories_json TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		tier TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_companies_api_key
		ON companies(api_key);

	-- Users (customers enrolled by a company)
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		segment TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_company
		ON users(company_id);

	-- Wallet directory (one address per owner, issued at onboarding)
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		owner_type TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		address TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_wallets_owner
		ON wallets(owner_type, owner_id);

	-- Reward rules (soft-deactivated, never deleted in normal flow)
	CREATE TABLE IF NOT EXISTS reward_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		mode TEXT NOT NULL,
		rate TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	-- Rule resolution hot path
	CREATE INDEX IF NOT EXISTS idx_rules_company_action
		ON reward_rules(company_id, action, is_active);

	-- Interactions (append-only event log)
	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		company_id INTEGER NOT NULL,
		service TEXT NOT NULL,
		action TEXT NOT NULL,
		amount TEXT,
		annotations_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_user
		ON interactions(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_interactions_company
		ON interactions(company_id);

	-- Token transfers (append-only receipt log)
	CREATE TABLE IF NOT EXISTS token_transfers (
		id TEXT PRIMARY KEY,
		tx_hash TEXT NOT NULL,
		from_wallet TEXT,
		to_wallet TEXT NOT NULL,
		amount TEXT NOT NULL,
		memo TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transfers_from
		ON token_transfers(from_wallet) WHERE from_wallet IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transfers_to
		ON token_transfers(to_wallet);

	-- Contracts (event hooks that auto-create a matching rule)
	CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		action TEXT NOT NULL,
		mode TEXT NOT NULL,
		rate TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		secret TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_company
		ON contracts(company_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes every row from every table. Dev wipe only.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"token_transfers", "interactions", "contracts",
		"reward_rules", "wallets", "users", "companies",
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
