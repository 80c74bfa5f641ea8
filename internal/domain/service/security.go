package service

import "time"

// PasswordCustodian is the only component that produces or checks secret
// digests.
type PasswordCustodian interface {
	Hash(plain string) (string, error)
	// Verify returns (false, nil) on mismatch. A non-nil error means the
	// digest or the primitive is broken and must surface as a server error.
	Verify(plain, digest string) (bool, error)
}

// TokenClaims is what a verified bearer token proves.
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
	// Verify never fails loudly: a malformed, tampered or expired token is
	// reported as ok == false.
	Verify(token string) (claims *TokenClaims, ok bool)
}
