package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a bank or member does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS banks (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS bank_members (
	id             TEXT PRIMARY KEY,
	bank_id        TEXT NOT NULL REFERENCES banks(id),
	content_type   TEXT NOT NULL,
	storage_bucket TEXT NOT NULL DEFAULT '',
	storage_key    TEXT NOT NULL DEFAULT '',
	raw_content    TEXT NOT NULL DEFAULT '',
	notes          TEXT NOT NULL DEFAULT '',
	is_removed     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_members_bank ON bank_members(bank_id, id);
CREATE TABLE IF NOT EXISTS member_signals (
	member_id   TEXT NOT NULL REFERENCES bank_members(id),
	signal_type TEXT NOT NULL,
	hash        TEXT NOT NULL,
	PRIMARY KEY (member_id, signal_type)
);
`

// Store persists banks, members and their derived signals in sqlite.
type Store struct {
	db *sqlx.DB
}

// OpenStore opens (creating if needed) the bank database at path and
// bootstraps the schema. Use ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open bank database %s: %w", path, err)
	}
	// modernc sqlite does not tolerate concurrent writers on one conn pool.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create bank schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CreateBank inserts a new active bank with a generated ID.
func (s *Store) CreateBank(ctx context.Context, name, description string) (*Bank, error) {
	if name == "" {
		return nil, errors.New("bank name must not be empty")
	}
	now := time.Now().UTC()
	b := &Bank{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO banks (id, name, description, is_active, created_at, updated_at)
		VALUES (:id, :name, :description, :is_active, :created_at, :updated_at)`, b)
	if err != nil {
		return nil, fmt.Errorf("cannot create bank %s: %w", name, err)
	}
	return b, nil
}

// GetBank fetches a bank by ID.
func (s *Store) GetBank(ctx context.Context, id string) (*Bank, error) {
	var b Bank
	err := s.db.GetContext(ctx, &b, `SELECT * FROM banks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBanks returns all banks ordered by name.
func (s *Store) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := s.db.SelectContext(ctx, &banks, `SELECT * FROM banks ORDER BY name`); err != nil {
		return nil, err
	}
	return banks, nil
}

// UpdateBank updates a bank's description and active flag.
func (s *Store) UpdateBank(ctx context.Context, id, description string, isActive bool) (*Bank, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE banks SET description = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		description, isActive, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetBank(ctx, id)
}

// AddMember inserts member into bank bankID, assigning ID and timestamps,
// and stores the signals derived for it.
func (s *Store) AddMember(ctx context.Context, bankID string, m *BankMember, signals []MemberSignal) (*BankMember, error) {
	if _, err := s.GetBank(ctx, bankID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	m.ID = uuid.NewString()
	m.BankID = bankID
	m.IsRemoved = false
	m.CreatedAt = now
	m.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO bank_members
			(id, bank_id, content_type, storage_bucket, storage_key, raw_content, notes, is_removed, created_at, updated_at)
		VALUES
			(:id, :bank_id, :content_type, :storage_bucket, :storage_key, :raw_content, :notes, :is_removed, :created_at, :updated_at)`, m); err != nil {
		return nil, fmt.Errorf("cannot add bank member: %w", err)
	}
	for i := range signals {
		signals[i].MemberID = m.ID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO member_signals (member_id, signal_type, hash)
			VALUES (:member_id, :signal_type, :hash)`, &signals[i]); err != nil {
			return nil, fmt.Errorf("cannot store member signal: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetMember fetches a member by ID, removed or not.
func (s *Store) GetMember(ctx context.Context, id string) (*BankMember, error) {
	var m BankMember
	err := s.db.GetContext(ctx, &m, `SELECT * FROM bank_members WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns up to limit non-removed members of a bank in ID
// order, starting after cursor ("" for the first page). The returned
// cursor is "" when the page is the last one.
func (s *Store) ListMembers(ctx context.Context, bankID, cursor string, limit int) ([]BankMember, string, error) {
	if limit <= 0 {
		limit = 100
	}
	var members []BankMember
	err := s.db.SelectContext(ctx, &members, `
		SELECT * FROM bank_members
		WHERE bank_id = ? AND is_removed = FALSE AND id > ?
		ORDER BY id LIMIT ?`, bankID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(members) > limit {
		members = members[:limit]
		next = members[limit-1].ID
	}
	return members, next, nil
}

// RemoveMember soft-deletes a member and drops its signals so future
// index builds no longer include them.
func (s *Store) RemoveMember(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bank_members SET is_removed = TRUE, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM member_signals WHERE member_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SignalsForMember returns all signals derived from a member.
func (s *Store) SignalsForMember(ctx context.Context, memberID string) ([]MemberSignal, error) {
	var sigs []MemberSignal
	err := s.db.SelectContext(ctx, &sigs, `
		SELECT * FROM member_signals WHERE member_id = ? ORDER BY signal_type`, memberID)
	if err != nil {
		return nil, err
	}
	return sigs, nil
}
