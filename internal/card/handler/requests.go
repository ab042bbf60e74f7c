package handler

import "guestpass/internal/card/models"

// RenderRequest is the wire shape for POST /cards/render.
type RenderRequest struct {
	CredentialCode string `json:"credential_code"`
	EventRef       string `json:"event_ref"`
	GuestName      string `json:"guest_name"`
	TierLabel      string `json:"tier_label"`
}

// TemplateRequest is the wire shape for PUT /templates/{eventRef}.
type TemplateRequest struct {
	ImagePath string        `json:"image_path"`
	Layout    models.Layout `json:"layout"`
	Style     models.Style  `json:"style"`
}
