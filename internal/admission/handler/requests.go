package handler

// ScanRequest is the body of POST /scans. Code carries either a bare
// admission code or the full QR URI from a rendered card.
type ScanRequest struct {
	Code      string `json:"code"`
	ScannedBy string `json:"scanned_by"`
}

// ScanResponse reports the outcome of a scan.
type ScanResponse struct {
	Granted   bool   `json:"granted"`
	Reason    string `json:"reason,omitempty"`
	ScanCount int    `json:"scan_count"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
	Status    string `json:"status"`
}
