// Package classify turns opaque repository errors into the short,
// user-facing phrases the A2A error builder surfaces, grounded on the
// original service's database-error classifier. Go repositories do not
// hand back driver-specific constraint names, so classification here
// matches on the repo package's small set of sentinel errors instead of
// string-matching a SQL driver message.
package classify

import (
	"errors"

	"github.com/agentexec/core/internal/repo"
)

// RepositoryError renders a short, caller-safe description of err, falling
// back to a generic message for anything unrecognized so internal details
// never leak into a JSON-RPC error response.
func RepositoryError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repo.ErrNotFound):
		return "Referenced entity does not exist"
	default:
		return "Internal storage error"
	}
}
