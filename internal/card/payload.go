// Package card exposes the QR payload contract shared with the admission
// scanner.
package card

import "strings"

// QRPayload builds the resolvable URI encoded into a card's QR code:
// <base>/<credential_code>. A generic reader lands on the guest-facing page;
// the admission scanner parses the trailing code segment back out.
func QRPayload(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/" + code
}
