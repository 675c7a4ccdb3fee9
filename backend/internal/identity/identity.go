// Package identity supplies the "current user" of a viewing session.
package identity

import (
	"context"
	"strings"
)

// Client reports the id (or fid) of the signed-in user. An empty id with a
// nil error means nobody is signed in, which is the normal case.
type Client interface {
	CurrentUser(ctx context.Context) (string, error)
}

// Static is a Client that always returns the same user
type Static string

// CurrentUser implements Client
func (s Static) CurrentUser(ctx context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Resolve asks c for the current user, treating a nil client or a failure as
// "no current user".
func Resolve(ctx context.Context, c Client) string {
	if c == nil {
		return ""
	}
	id, err := c.CurrentUser(ctx)
	if err != nil {
		return ""
	}
	return id
}
