package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"hrms/internal/platform/changefeed"
	cryptoutil "hrms/internal/platform/crypto"
)

type Options struct {
	Secret     string
	SessionTTL time.Duration
	MFAIssuer  string
}

type Service struct {
	store     StoreAPI
	limiter   AttemptLimiter
	crypto    *cryptoutil.Service
	hub       *changefeed.Hub
	publisher changefeed.Publisher
	sessions  *changefeed.Registry
	opts      Options
}

func NewService(store StoreAPI, limiter AttemptLimiter, crypto *cryptoutil.Service, hub *changefeed.Hub, publisher changefeed.Publisher, sessions *changefeed.Registry, opts Options) *Service {
	if publisher == nil {
		publisher = hub
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 8 * time.Hour
	}
	if opts.MFAIssuer == "" {
		opts.MFAIssuer = "MCD HRMS"
	}
	return &Service{
		store:     store,
		limiter:   limiter,
		crypto:    crypto,
		hub:       hub,
		publisher: publisher,
		sessions:  sessions,
		opts:      opts,
	}
}

// Sessions holds the live subscriptions owned by each signed-in session.
func (s *Service) Sessions() *changefeed.Registry {
	return s.sessions
}

func (s *Service) SignIn(ctx context.Context, email, password, mfaCode string) (Identity, error) {
	email = NormalizeEmail(email)
	blocked, err := s.limiter.Blocked(ctx, email)
	if err != nil {
		slog.Warn("login limiter unavailable", "err", err)
	}
	if blocked {
		return Identity{}, ErrTooManyAttempts
	}

	account, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, fmt.Errorf("load account: %w", err)
		}
		s.recordFailure(ctx, email)
		return Identity{}, ErrInvalidCredentials
	}
	if account.Status != AccountStatusActive || CheckPassword(account.PasswordHash, password) != nil {
		s.recordFailure(ctx, email)
		return Identity{}, ErrInvalidCredentials
	}

	if account.MFAEnabled {
		if mfaCode == "" {
			return Identity{}, ErrMFARequired
		}
		if err := s.verifyCode(account.MFASecretEnc, mfaCode); err != nil {
			s.recordFailure(ctx, email)
			return Identity{}, err
		}
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		slog.Warn("login limiter reset failed", "err", err)
	}
	return s.startSession(ctx, account)
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.Failed(ctx, email); err != nil {
		slog.Warn("login limiter update failed", "err", err)
	}
}

func (s *Service) startSession(ctx context.Context, account Account) (Identity, error) {
	nonce, err := NewOpaqueToken()
	if err != nil {
		return Identity{}, err
	}
	expires := time.Now().Add(s.opts.SessionTTL)
	sessionID, err := s.store.CreateSession(ctx, account.ID, HashToken(nonce), expires)
	if err != nil {
		return Identity{}, fmt.Errorf("start session: %w", err)
	}
	token, err := GenerateToken(s.opts.Secret, Claims{AccountID: account.ID, Email: account.Email, SessionID: sessionID}, s.opts.SessionTTL)
	if err != nil {
		return Identity{}, fmt.Errorf("issue token: %w", err)
	}
	if err := s.store.TouchLastLogin(ctx, account.ID); err != nil {
		slog.Warn("update last_login failed", "accountId", account.ID, "err", err)
	}

	s.publishAuth(account.ID, sessionID, true)
	return Identity{
		AccountID: account.ID,
		Email:     account.Email,
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: expires,
	}, nil
}

// Authenticate validates a bearer token against the session table.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := ParseToken(s.opts.Secret, token)
	if err != nil {
		return Identity{}, ErrSessionInvalid
	}
	active, err := s.store.SessionActive(ctx, claims.SessionID, claims.AccountID)
	if err != nil {
		return Identity{}, fmt.Errorf("check session: %w", err)
	}
	if !active {
		return Identity{}, ErrSessionInvalid
	}
	identity := Identity{AccountID: claims.AccountID, Email: claims.Email, SessionID: claims.SessionID}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// SignOut revokes the session and closes every live subscription it owns.
// Signing out twice is harmless.
func (s *Service) SignOut(ctx context.Context, identity Identity) error {
	if s.sessions != nil {
		s.sessions.Release(identity.SessionID)
	}
	if err := s.store.RevokeSession(ctx, identity.SessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.publishAuth(identity.AccountID, identity.SessionID, false)
	return nil
}

// OnAuthChange delivers sign-in and sign-out transitions for accountID.
func (s *Service) OnAuthChange(accountID string, fn func(AuthEvent)) *changefeed.Subscription {
	return s.hub.Subscribe(changefeed.Filter{Collection: CollectionAuth, DocumentID: accountID}, func(evt changefeed.Event) {
		fn(AuthEvent{
			AccountID: evt.DocumentID,
			SessionID: evt.Attrs["session"],
			SignedIn:  evt.Op == changefeed.OpCreate,
		})
	})
}

// ReleaseSignedOut releases the session scope for every sign-out seen on the
// hub. Sign-outs on other instances arrive through the bridge.
func (s *Service) ReleaseSignedOut() *changefeed.Subscription {
	if s.hub == nil || s.sessions == nil {
		return nil
	}
	return s.sessions.ReleaseOn(s.hub, changefeed.Filter{Collection: CollectionAuth}, func(evt changefeed.Event) string {
		if evt.Op != changefeed.OpDelete {
			return ""
		}
		return evt.Attrs["session"]
	})
}

func (s *Service) publishAuth(accountID, sessionID string, signedIn bool) {
	op := changefeed.OpDelete
	if signedIn {
		op = changefeed.OpCreate
	}
	s.publisher.Publish(changefeed.Event{
		Collection: CollectionAuth,
		DocumentID: accountID,
		Op:         op,
		Attrs:      map[string]string{"session": sessionID},
	})
}

// SignUp registers a new account and returns its identifier.
func (s *Service) SignUp(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.store.CreateAccount(ctx, email, hash)
}

func (s *Service) SetupMFA(ctx context.Context, identity Identity) (MFASetup, error) {
	if !s.crypto.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.opts.MFAIssuer,
		AccountName: identity.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	sealed, err := s.crypto.SealString(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.StoreMFASecret(ctx, identity.AccountID, sealed); err != nil {
		return MFASetup{}, fmt.Errorf("store mfa secret: %w", err)
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) SetMFA(ctx context.Context, identity Identity, code string, enabled bool) error {
	if !s.crypto.Configured() {
		return ErrMFAUnavailable
	}
	account, err := s.store.AccountByID(ctx, identity.AccountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if len(account.MFASecretEnc) == 0 {
		return ErrMFANotSetUp
	}
	if err := s.verifyCode(account.MFASecretEnc, code); err != nil {
		return err
	}
	return s.store.SetMFAEnabled(ctx, identity.AccountID, enabled)
}

func (s *Service) verifyCode(sealed []byte, code string) error {
	if !s.crypto.Configured() {
		return ErrMFAUnavailable
	}
	secret, err := s.crypto.OpenString(sealed)
	if err != nil || secret == "" {
		return ErrMFAInvalid
	}
	if !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return nil
}
