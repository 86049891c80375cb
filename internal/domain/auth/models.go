package auth

import "time"

const (
	AccountStatusActive   = "active"
	AccountStatusDisabled = "disabled"

	CollectionAuth = "auth"
)

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Status       string
	MFAEnabled   bool
	MFASecretEnc []byte
}

// Identity is a signed-in session.
type Identity struct {
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	SessionID string    `json:"-"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthEvent reports a sign-in or sign-out for an account.
type AuthEvent struct {
	AccountID string
	SessionID string
	SignedIn  bool
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}
