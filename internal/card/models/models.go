package models

import "time"

// Point is a layout coordinate in percent of canvas width/height, each in
// [0,100]. Coordinates stay resolution-independent and are resolved to
// pixels only inside the compositor, never persisted as pixels.
type Point struct {
	XPct float64 `json:"x_pct"`
	YPct float64 `json:"y_pct"`
}

// Layout positions the three card overlays.
type Layout struct {
	Name Point `json:"name"`
	QR   Point `json:"qr"`
	Tier Point `json:"tier"`
}

// Style carries per-event visual overrides. Zero values fall back to the
// compositor defaults.
type Style struct {
	NameColor    string `json:"name_color,omitempty"`
	TierColor    string `json:"tier_color,omitempty"`
	NameFontSize int    `json:"name_font_size,omitempty"`
	TierFontSize int    `json:"tier_font_size,omitempty"`

	ShowGuestName bool `json:"show_guest_name"`
	ShowQR        bool `json:"show_qr"`
	ShowTierLabel bool `json:"show_tier_label"`
}

// Template is an event's card design: a validated raster image plus layout
// and style. Dimension/format validation happens upstream at upload time;
// this core treats the image as trusted input.
type Template struct {
	EventRef  string    `json:"event_ref"`
	ImagePath string    `json:"image_path"`
	Layout    Layout    `json:"layout"`
	Style     Style     `json:"style"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenderedCard records one produced artifact. Prior artifacts are never
// overwritten; the owning guest's current-card pointer (managed outside this
// core) decides which one is live.
type RenderedCard struct {
	CredentialCode string    `json:"credential_code"`
	ArtifactPath   string    `json:"artifact_path"`
	RenderedAt     time.Time `json:"rendered_at"`
}

// Subject is the guest-facing text drawn onto a card. Display name and tier
// label are provided by the guest management collaborator.
type Subject struct {
	DisplayName string `json:"display_name"`
	TierLabel   string `json:"tier_label"`
}
