package compositor

import (
	"image"

	qrcode "github.com/skip2/go-qrcode"

	dErrors "guestpass/pkg/domain-errors"
)

// encodeQR rasters the payload at the given edge length. Error correction
// starts at Medium and degrades toward Low before giving up, trading
// redundancy for capacity when the payload runs long.
func encodeQR(payload string, size int) (image.Image, error) {
	if payload == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "qr payload is empty")
	}

	var lastErr error
	for _, level := range []qrcode.RecoveryLevel{qrcode.Medium, qrcode.Low} {
		q, err := qrcode.New(payload, level)
		if err != nil {
			lastErr = err
			continue
		}
		return q.Image(size), nil
	}
	return nil, dErrors.Wrap(lastErr, dErrors.CodeInternal, "qr encoding failed")
}
