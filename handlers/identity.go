package handlers

import (
	"github.com/pocketbase/pocketbase/core"

	"concert-stream/models"
)

// resolveIdentity builds the request identity once, at the HTTP
// boundary. Downstream checks receive it as a value instead of
// re-deriving role claims ad hoc.
func resolveIdentity(e *core.RequestEvent) models.Identity {
	if e.Auth == nil {
		return models.Identity{}
	}
	return models.Identity{
		UserID: e.Auth.Id,
		Admin:  resolveAdmin(e),
	}
}

// resolveAdmin fails closed: any failure while resolving the role leaves
// the caller non-admin and the request alive, falling back to the
// ticket-based check.
func resolveAdmin(e *core.RequestEvent) (admin bool) {
	defer func() {
		if r := recover(); r != nil {
			admin = false
		}
	}()

	if e.Auth == nil {
		return false
	}
	if e.Auth.IsSuperuser() {
		return true
	}
	return e.Auth.GetBool("is_admin")
}
