package handler

// BatchPurgeRequest is the body of POST /purges.
type BatchPurgeRequest struct {
	OwnerRefs []string `json:"owner_refs"`
}
