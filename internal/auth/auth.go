// Package auth validates the developer credential pair.
//
// Credentials are supplied externally (config file or environment), never
// hard-coded. The client/owner role carries no credentials at all; this
// package only gates the developer side.
package auth

import (
	"crypto/subtle"
	"errors"
)

// ErrInvalidCredentials is returned when the presented pair does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is the configured developer credential pair.
type Credentials struct {
	Username string
	Password string
}

// Configured reports whether a credential pair has been supplied at all.
// With no pair configured, developer gating is disabled.
func (c Credentials) Configured() bool {
	return c.Username != "" || c.Password != ""
}

// Verify checks a presented username/password pair in constant time.
func (c Credentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1

	if !userOK || !passOK {
		return ErrInvalidCredentials
	}

	return nil
}
