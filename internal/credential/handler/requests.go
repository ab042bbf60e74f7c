package handler

// IssueRequest is the wire shape for POST /credentials.
type IssueRequest struct {
	OwnerRef string `json:"owner_ref"`
	Capacity int    `json:"capacity"`
}
