package signals

import (
	"fmt"
	"regexp"
)

var (
	// GitHub logins: alphanumerics and single inner hyphens, max 39 chars
	loginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// ValidateOwner checks the syntax of a hosting account name.
func ValidateOwner(owner string) error {
	if owner == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if !loginPattern.MatchString(owner) {
		return fmt.Errorf("invalid username format: %q", owner)
	}
	return nil
}

// ValidateRepoName checks the syntax of a repository name.
func ValidateRepoName(name string) error {
	if name == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if name == "." || name == ".." || !repoPattern.MatchString(name) {
		return fmt.Errorf("invalid repository name: %q", name)
	}
	return nil
}
