package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"guestpass/internal/admission/models"
)

// PostgresStore persists redemption records in PostgreSQL. The increment is
// a single conditional UPDATE ... RETURNING, so two gates scanning the same
// code can never both pass the capacity check — the row lock serializes
// them and the WHERE clause rejects the loser.
//
// Schema:
//
//	CREATE TABLE redemption_records (
//	    credential_code TEXT PRIMARY KEY REFERENCES credentials (code),
//	    capacity        INT  NOT NULL CHECK (capacity >= 1),
//	    scan_count      INT  NOT NULL DEFAULT 0 CHECK (scan_count >= 0 AND scan_count <= capacity),
//	    status          TEXT NOT NULL DEFAULT 'NOT_REDEEMED',
//	    last_scanned_by TEXT NOT NULL DEFAULT '',
//	    last_scanned_at TIMESTAMPTZ
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed redemption store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Redeem(ctx context.Context, code string, capacity int, scannedBy string, at time.Time) (*models.RedemptionRecord, bool, error) {
	insert := `
		INSERT INTO redemption_records (credential_code, capacity, scan_count, status, last_scanned_by)
		VALUES ($1, $2, 0, 'NOT_REDEEMED', '')
		ON CONFLICT (credential_code) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insert, code, capacity); err != nil {
		return nil, false, fmt.Errorf("init redemption record: %w", err)
	}

	update := `
		UPDATE redemption_records
		SET scan_count      = scan_count + 1,
		    status          = CASE WHEN scan_count + 1 >= capacity THEN 'REDEEMED' ELSE 'NOT_REDEEMED' END,
		    last_scanned_by = $2,
		    last_scanned_at = $3
		WHERE credential_code = $1 AND scan_count < capacity
		RETURNING credential_code, capacity, scan_count, status, last_scanned_by, last_scanned_at
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, update, code, scannedBy, at))
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("redeem: %w", err)
	}

	// Capacity already exhausted; return the unmutated record.
	record, err = s.Get(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, fmt.Errorf("redemption record vanished for %s", code)
	}
	return record, false, nil
}

func (s *PostgresStore) Get(ctx context.Context, code string) (*models.RedemptionRecord, error) {
	query := `
		SELECT credential_code, capacity, scan_count, status, last_scanned_by, last_scanned_at
		FROM redemption_records
		WHERE credential_code = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get redemption record: %w", err)
	}
	return record, nil
}

func scanRecord(row *sql.Row) (*models.RedemptionRecord, error) {
	var record models.RedemptionRecord
	var scannedAt sql.NullTime
	err := row.Scan(
		&record.CredentialCode,
		&record.Capacity,
		&record.ScanCount,
		&record.Status,
		&record.LastScannedBy,
		&scannedAt,
	)
	if err != nil {
		return nil, err
	}
	if scannedAt.Valid {
		record.LastScannedAt = scannedAt.Time
	}
	return &record, nil
}
