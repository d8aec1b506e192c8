// Package auth is the single credential check shared by the HTTP middleware
// and every RPC method.
package auth

import (
	"context"
	"strings"

	"github.com/datatrails/go-datatrails-kvstore/errhandling"
)

const (
	bearerPrefix = "Bearer "
	// Delimiter separates the namespace from the logical key in the backend.
	Delimiter = ":"

	redactLength = 8
)

// TokenValidator reports whether a credential is registered.
type TokenValidator interface {
	ValidateToken(ctx context.Context, credential string) (bool, error)
}

type credentialKey struct{}

// BearerCredential extracts the credential from an Authorization header
// value. The scheme is matched exactly.
func BearerCredential(header string) (string, error) {
	credential, found := strings.CutPrefix(header, bearerPrefix)
	if !found {
		return "", errhandling.Unauthorized("missing or invalid Authorization header")
	}
	if credential == "" {
		return "", errhandling.Unauthorized("empty bearer credential")
	}
	return credential, nil
}

// Check returns nil only for a well formed, registered credential. A failure
// of the membership check itself is an Internal error, never Unauthorized.
func Check(ctx context.Context, validator TokenValidator, credential string) error {
	if credential == "" {
		return errhandling.Unauthorized("empty credential")
	}
	// A delimiter inside a credential would let one namespace reach into
	// another's keys.
	if strings.Contains(credential, Delimiter) {
		return errhandling.Unauthorized("credential %s contains %q", Redact(credential), Delimiter)
	}
	ok, err := validator.ValidateToken(ctx, credential)
	if err != nil {
		return errhandling.Internal(err, "token validation failed")
	}
	if !ok {
		return errhandling.Unauthorized("invalid token %s", Redact(credential))
	}
	return nil
}

// ContextWithCredential records a checked credential for the handlers.
func ContextWithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey{}, credential)
}

// CredentialFromContext returns the credential recorded by
// ContextWithCredential.
func CredentialFromContext(ctx context.Context) (string, bool) {
	credential, ok := ctx.Value(credentialKey{}).(string)
	return credential, ok && credential != ""
}

// Redact returns at most the first eight characters of a credential, for
// logging.
func Redact(credential string) string {
	runes := []rune(credential)
	if len(runes) <= redactLength {
		return credential
	}
	return string(runes[:redactLength]) + "..."
}
