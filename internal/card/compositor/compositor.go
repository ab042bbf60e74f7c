// Package compositor renders personalized card images: template + guest
// name + tier label + QR code, scale-correct for any source resolution.
//
// The pipeline is pure pixel work with no I/O, so identical inputs produce
// identical output. Decoding, storage and bookkeeping live in the card
// service.
package compositor

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"guestpass/internal/card/models"
)

const (
	defaultNameColor = "#000000"
	defaultTierColor = "#333333"
	shadowColor      = "#000000"
	// shadowOffset is the legibility shadow pass offset in output pixels.
	shadowOffset = 2.0
)

// Options bound the output canvas and set scale-1.0 sizes. All sizes are
// multiplied by the uniform resize scale so overlays keep their apparent
// size regardless of the template's native resolution.
type Options struct {
	// MaxWidth/MaxHeight is the target box; the template is fit inside it
	// preserving aspect ratio, never upscaled.
	MaxWidth  int
	MaxHeight int
	// QRSize is the QR edge length in pixels at scale 1.0.
	QRSize int
	// NameFontSize/TierFontSize apply when the template style leaves them
	// unset.
	NameFontSize int
	TierFontSize int
}

// Compositor draws card overlays using an injected font.
type Compositor struct {
	font *truetype.Font
	opts Options
}

// New parses fontBytes (TTF) and returns a ready compositor.
func New(fontBytes []byte, opts Options) (*Compositor, error) {
	if opts.MaxWidth < 1 || opts.MaxHeight < 1 {
		return nil, fmt.Errorf("invalid canvas box %dx%d", opts.MaxWidth, opts.MaxHeight)
	}
	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Compositor{font: f, opts: opts}, nil
}

// Compose renders the card canvas from a decoded template image.
// qrPayload is the resolvable URI to encode; it is ignored unless the style
// shows the QR.
func (c *Compositor) Compose(src image.Image, layout models.Layout, style models.Style, subject models.Subject, qrPayload string) (image.Image, error) {
	w0 := src.Bounds().Dx()
	h0 := src.Bounds().Dy()
	if w0 < 1 || h0 < 1 {
		return nil, fmt.Errorf("empty template image")
	}

	// Aspect-preserving resize into the target box; small templates pass
	// through at native size rather than being upscaled.
	canvas := imaging.Fit(src, c.opts.MaxWidth, c.opts.MaxHeight, imaging.Lanczos)
	wt := canvas.Bounds().Dx()
	ht := canvas.Bounds().Dy()

	scaleX := float64(wt) / float64(w0)
	scaleY := float64(ht) / float64(h0)
	// Uniform scale for anything that must not look stretched.
	scale := math.Min(scaleX, scaleY)

	dc := gg.NewContextForImage(canvas)

	if style.ShowGuestName && subject.DisplayName != "" {
		size := float64(orDefault(style.NameFontSize, c.opts.NameFontSize)) * scale
		x := layout.Name.XPct / 100 * float64(wt)
		y := layout.Name.YPct / 100 * float64(ht)
		c.drawText(dc, subject.DisplayName, x, y, size, orDefaultColor(style.NameColor, defaultNameColor))
	}

	if style.ShowTierLabel && subject.TierLabel != "" {
		size := float64(orDefault(style.TierFontSize, c.opts.TierFontSize)) * scale
		x := layout.Tier.XPct / 100 * float64(wt)
		y := layout.Tier.YPct / 100 * float64(ht)
		c.drawText(dc, subject.TierLabel, x, y, size, orDefaultColor(style.TierColor, defaultTierColor))
	}

	// QR goes on last so overlapping text can never occlude it.
	if style.ShowQR {
		qrSize := int(math.Round(float64(c.opts.QRSize) * scale))
		qrImg, err := encodeQR(qrPayload, qrSize)
		if err != nil {
			return nil, err
		}
		x := int(math.Round(layout.QR.XPct / 100 * float64(wt)))
		y := int(math.Round(layout.QR.YPct / 100 * float64(ht)))
		dc.DrawImageAnchored(qrImg, x, y, 0.5, 0.5)
	}

	return dc.Image(), nil
}

// drawText draws centered text with a shadow pass first, so the text stays
// legible against arbitrary template backgrounds.
func (c *Compositor) drawText(dc *gg.Context, text string, x, y, size float64, hexColor string) {
	dc.SetFontFace(truetype.NewFace(c.font, &truetype.Options{Size: size}))

	dc.SetHexColor(shadowColor)
	dc.DrawStringAnchored(text, x+shadowOffset, y+shadowOffset, 0.5, 0.5)

	dc.SetHexColor(hexColor)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orDefaultColor(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
