package template

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guestpass/internal/card/models"
)

// PostgresStore persists card templates in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE card_templates (
//	    event_ref       TEXT PRIMARY KEY,
//	    image_path      TEXT NOT NULL,
//	    name_x          NUMERIC(5,2) NOT NULL,
//	    name_y          NUMERIC(5,2) NOT NULL,
//	    qr_x            NUMERIC(5,2) NOT NULL,
//	    qr_y            NUMERIC(5,2) NOT NULL,
//	    tier_x          NUMERIC(5,2) NOT NULL,
//	    tier_y          NUMERIC(5,2) NOT NULL,
//	    name_color      TEXT NOT NULL DEFAULT '',
//	    tier_color      TEXT NOT NULL DEFAULT '',
//	    name_font_size  INT  NOT NULL DEFAULT 0,
//	    tier_font_size  INT  NOT NULL DEFAULT 0,
//	    show_guest_name BOOLEAN NOT NULL,
//	    show_qr         BOOLEAN NOT NULL,
//	    show_tier_label BOOLEAN NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, tmpl models.Template) error {
	query := `
		INSERT INTO card_templates (
			event_ref, image_path,
			name_x, name_y, qr_x, qr_y, tier_x, tier_y,
			name_color, tier_color, name_font_size, tier_font_size,
			show_guest_name, show_qr, show_tier_label, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (event_ref) DO UPDATE SET
			image_path      = EXCLUDED.image_path,
			name_x          = EXCLUDED.name_x,
			name_y          = EXCLUDED.name_y,
			qr_x            = EXCLUDED.qr_x,
			qr_y            = EXCLUDED.qr_y,
			tier_x          = EXCLUDED.tier_x,
			tier_y          = EXCLUDED.tier_y,
			name_color      = EXCLUDED.name_color,
			tier_color      = EXCLUDED.tier_color,
			name_font_size  = EXCLUDED.name_font_size,
			tier_font_size  = EXCLUDED.tier_font_size,
			show_guest_name = EXCLUDED.show_guest_name,
			show_qr         = EXCLUDED.show_qr,
			show_tier_label = EXCLUDED.show_tier_label,
			updated_at      = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		tmpl.EventRef, tmpl.ImagePath,
		tmpl.Layout.Name.XPct, tmpl.Layout.Name.YPct,
		tmpl.Layout.QR.XPct, tmpl.Layout.QR.YPct,
		tmpl.Layout.Tier.XPct, tmpl.Layout.Tier.YPct,
		tmpl.Style.NameColor, tmpl.Style.TierColor,
		tmpl.Style.NameFontSize, tmpl.Style.TierFontSize,
		tmpl.Style.ShowGuestName, tmpl.Style.ShowQR, tmpl.Style.ShowTierLabel,
		tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, eventRef string) (*models.Template, error) {
	query := `
		SELECT event_ref, image_path,
		       name_x, name_y, qr_x, qr_y, tier_x, tier_y,
		       name_color, tier_color, name_font_size, tier_font_size,
		       show_guest_name, show_qr, show_tier_label, updated_at
		FROM card_templates
		WHERE event_ref = $1
	`
	var tmpl models.Template
	err := s.db.QueryRowContext(ctx, query, eventRef).Scan(
		&tmpl.EventRef, &tmpl.ImagePath,
		&tmpl.Layout.Name.XPct, &tmpl.Layout.Name.YPct,
		&tmpl.Layout.QR.XPct, &tmpl.Layout.QR.YPct,
		&tmpl.Layout.Tier.XPct, &tmpl.Layout.Tier.YPct,
		&tmpl.Style.NameColor, &tmpl.Style.TierColor,
		&tmpl.Style.NameFontSize, &tmpl.Style.TierFontSize,
		&tmpl.Style.ShowGuestName, &tmpl.Style.ShowQR, &tmpl.Style.ShowTierLabel,
		&tmpl.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &tmpl, nil
}
