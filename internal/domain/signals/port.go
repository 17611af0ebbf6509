package signals

import (
	"context"
	"errors"
	"fmt"
)

// HostingClient port (interface to the code hosting API)
type HostingClient interface {
	// ListCommits returns commits newest first.
	ListCommits(ctx context.Context, owner, repo string, perPage int) ([]Commit, error)
	// Languages returns the language byte distribution in API order.
	Languages(ctx context.Context, owner, repo string) ([]LanguageBytes, error)
	// ListUserRepos returns the public repositories of a user, unordered.
	ListUserRepos(ctx context.Context, owner string) ([]Repository, error)
}

// StatusError is returned by a HostingClient when the API answered with a
// non-success status. Anything else a client returns is a transport failure.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsRateLimited covers both GitHub styles: 403 with exhausted quota and 429.
func (e *StatusError) IsRateLimited() bool {
	return e.StatusCode == 403 || e.StatusCode == 429
}

// AsStatusError unwraps err into a *StatusError when possible.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

var (
	ErrNoRepositories       = errors.New("no repositories selected")
	ErrAllCollectionsFailed = errors.New("failed to fetch data for all repositories")
)
