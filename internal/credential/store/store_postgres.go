package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"guestpass/internal/credential/models"
)

// PostgresStore persists credentials in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE credentials (
//	    code       TEXT PRIMARY KEY,
//	    owner_ref  TEXT NOT NULL,
//	    capacity   INT  NOT NULL CHECK (capacity >= 1),
//	    issued_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX credentials_owner_ref_idx ON credentials (owner_ref);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, cred models.Credential) error {
	query := `
		INSERT INTO credentials (code, owner_ref, capacity, issued_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, cred.Code, cred.OwnerRef, cred.Capacity, cred.IssuedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrCodeTaken
		}
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Credential, error) {
	query := `
		SELECT code, owner_ref, capacity, issued_at
		FROM credentials
		WHERE code = $1
	`
	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerRef string) ([]*models.Credential, error) {
	query := `
		SELECT code, owner_ref, capacity, issued_at
		FROM credentials
		WHERE owner_ref = $1
		ORDER BY issued_at
	`
	rows, err := s.db.QueryContext(ctx, query, ownerRef)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.Credential
	for rows.Next() {
		var cred models.Credential
		if err := rows.Scan(&cred.Code, &cred.OwnerRef, &cred.Capacity, &cred.IssuedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, &cred)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func scanCredential(row *sql.Row) (*models.Credential, error) {
	var cred models.Credential
	if err := row.Scan(&cred.Code, &cred.OwnerRef, &cred.Capacity, &cred.IssuedAt); err != nil {
		return nil, err
	}
	return &cred, nil
}
