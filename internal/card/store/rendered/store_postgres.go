package rendered

import (
	"context"
	"database/sql"
	"fmt"

	"guestpass/internal/card/models"
)

// PostgresStore persists rendered card rows in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE rendered_cards (
//	    credential_code TEXT NOT NULL REFERENCES credentials (code),
//	    artifact_path   TEXT PRIMARY KEY,
//	    rendered_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX rendered_cards_code_idx ON rendered_cards (credential_code);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, card models.RenderedCard) error {
	query := `
		INSERT INTO rendered_cards (credential_code, artifact_path, rendered_at)
		VALUES ($1, $2, $3)
	`
	_, err := s.db.ExecContext(ctx, query, card.CredentialCode, card.ArtifactPath, card.RenderedAt)
	if err != nil {
		return fmt.Errorf("add rendered card: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCredential(ctx context.Context, code string) ([]models.RenderedCard, error) {
	query := `
		SELECT credential_code, artifact_path, rendered_at
		FROM rendered_cards
		WHERE credential_code = $1
		ORDER BY rendered_at
	`
	rows, err := s.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("list rendered cards: %w", err)
	}
	defer rows.Close()

	var out []models.RenderedCard
	for rows.Next() {
		var card models.RenderedCard
		if err := rows.Scan(&card.CredentialCode, &card.ArtifactPath, &card.RenderedAt); err != nil {
			return nil, fmt.Errorf("scan rendered card: %w", err)
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Remove(ctx context.Context, artifactPath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rendered_cards WHERE artifact_path = $1`, artifactPath)
	if err != nil {
		return fmt.Errorf("remove rendered card: %w", err)
	}
	return nil
}
