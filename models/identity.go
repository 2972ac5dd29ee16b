package models

// Identity carries the caller's resolved identity for a single request.
// Admin is resolved once at the HTTP boundary and threaded explicitly;
// a failed role lookup leaves it false.
type Identity struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// Anonymous reports whether no authenticated user backs this identity.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}
