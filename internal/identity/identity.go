// Package identity carries the acting wallet through a request.
package identity

import (
	"context"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Identity is the acting party of an operation.
type Identity struct {
	Address   string
	Connected bool
}

// New returns a connected identity for a well-formed wallet address and a
// disconnected one otherwise.
func New(address string) Identity {
	address = strings.TrimSpace(address)
	if !IsAddress(address) {
		return Identity{}
	}
	return Identity{Address: address, Connected: true}
}

// IsAddress reports whether s has the shape of a wallet address: 0x followed by 40 hex characters.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or a disconnected identity.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}
