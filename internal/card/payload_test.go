package card

import "testing"

func TestQRPayload(t *testing.T) {
	cases := []struct {
		name    string
		baseURL string
		code    string
		want    string
	}{
		{name: "plain base", baseURL: "https://guestpass.local/rsvp", code: "KRGC123456", want: "https://guestpass.local/rsvp/KRGC123456"},
		{name: "trailing slash stripped", baseURL: "https://guestpass.local/rsvp/", code: "KRGC123456", want: "https://guestpass.local/rsvp/KRGC123456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := QRPayload(tc.baseURL, tc.code); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
