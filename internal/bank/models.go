// Package bank manages curated collections of content and the signals
// derived from them, backed by sqlite and an optional object store for
// member media.
package bank

import (
	"time"

	"github.com/sigexhq/sigex-cli/internal/content"
)

// Bank is a named collection of members sharing a moderation purpose.
type Bank struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BankMember is one piece of content in a bank. Content lives either
// inline (RawContent) or in the media store (StorageBucket/StorageKey).
type BankMember struct {
	ID            string       `db:"id" json:"id"`
	BankID        string       `db:"bank_id" json:"bank_id"`
	ContentType   content.Type `db:"content_type" json:"content_type"`
	StorageBucket string       `db:"storage_bucket" json:"storage_bucket,omitempty"`
	StorageKey    string       `db:"storage_key" json:"storage_key,omitempty"`
	RawContent    string       `db:"raw_content" json:"raw_content,omitempty"`
	Notes         string       `db:"notes" json:"notes,omitempty"`
	IsRemoved     bool         `db:"is_removed" json:"is_removed"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// MemberSignal is a signal derived from a bank member's content.
type MemberSignal struct {
	MemberID   string `db:"member_id" json:"member_id"`
	SignalType string `db:"signal_type" json:"signal_type"`
	Hash       string `db:"hash" json:"hash"`
}
