// Package store persists mail accounts in SQLite. There is at most one
// account row per user; writes are upserts keyed on the user id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/nwillis/mailgate/pkg/types"
)

// Store wraps the accounts database.
type Store struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// Open opens (or creates) the accounts database at dbPath and applies the
// schema.
func Open(dbPath string, logger *logrus.Logger) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	logger.WithField("path", dbPath).Info("Account store opened")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetAccount returns the account for userID, or nil when none is configured.
func (s *Store) GetAccount(ctx context.Context, userID string) (*types.MailAccount, error) {
	var acct types.MailAccount
	err := s.db.GetContext(ctx, &acct,
		"SELECT * FROM mail_accounts WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return &acct, nil
}

// UpsertAccount creates the account for acct.UserID, replacing any existing
// row for the same user. It returns the row id.
func (s *Store) UpsertAccount(ctx context.Context, acct *types.MailAccount) (int64, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mail_accounts (
			user_id, email,
			imap_host, imap_port, imap_secure,
			smtp_host, smtp_port, smtp_secure,
			username, password_enc,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			imap_host = excluded.imap_host,
			imap_port = excluded.imap_port,
			imap_secure = excluded.imap_secure,
			smtp_host = excluded.smtp_host,
			smtp_port = excluded.smtp_port,
			smtp_secure = excluded.smtp_secure,
			username = excluded.username,
			password_enc = excluded.password_enc,
			updated_at = excluded.updated_at`,
		acct.UserID, acct.Email,
		acct.IMAPHost, acct.IMAPPort, boolToInt(acct.IMAPSecure),
		acct.SMTPHost, acct.SMTPPort, boolToInt(acct.SMTPSecure),
		acct.Username, acct.Password,
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting account: %w", err)
	}

	var id int64
	if err := s.db.GetContext(ctx, &id,
		"SELECT id FROM mail_accounts WHERE user_id = ?", acct.UserID); err != nil {
		return 0, fmt.Errorf("reading account id: %w", err)
	}
	return id, nil
}

// DeleteAccount removes the account for userID. Deleting a missing account
// is not an error.
func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM mail_accounts WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
