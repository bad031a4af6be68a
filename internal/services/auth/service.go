// Package auth manages username/password accounts and long-lived session
// tokens inside a room's store
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
	"github.com/mcoot/shatterrealms/internal/dependencies/random"
	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/storage"
)

// Errors
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
	ErrPasswordTooShort   = errors.New("password too short")
)

const (
	hexAlphabet = "0123456789abcdef"
	saltLength  = 32 // hex chars, 16 bytes
	tokenLength = 64 // hex chars, 32 bytes
	keyLength   = 32
)

// Config holds configuration for the auth service
type Config struct {
	SessionDuration   time.Duration
	Iterations        int
	MinPasswordLength int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration:   365 * 24 * time.Hour,
		Iterations:        100_000,
		MinPasswordLength: 6,
	}
}

// Service handles accounts and sessions
type Service struct {
	store  storage.Store
	clock  clock.Clock
	random random.Random
	config Config
}

// New creates a new auth Service over the given store
func New(store storage.Store, clk clock.Clock, rnd random.Random, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = defaults.Iterations
	}
	if cfg.MinPasswordLength == 0 {
		cfg.MinPasswordLength = defaults.MinPasswordLength
	}
	return &Service{
		store:  store,
		clock:  clk,
		random: rnd,
		config: cfg,
	}
}

func accountKey(usernameLower string) string { return "account:" + usernameLower }
func sessionKey(token string) string         { return "session:" + token }

// CreateAccount registers a new account owned by deviceID. The username is
// expected to have been validated already.
func (s *Service) CreateAccount(ctx context.Context, username, password string, deviceID model.DeviceID) (*model.Account, error) {
	if utf8.RuneCountInString(password) < s.config.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	lower := strings.ToLower(username)
	_, err := s.store.Get(ctx, accountKey(lower))
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	salt := s.random.String(saltLength, hexAlphabet)
	account := &model.Account{
		Username:      username,
		UsernameLower: lower,
		PasswordHash:  HashPassword(password, salt, s.config.Iterations),
		PasswordSalt:  salt,
		DeviceID:      deviceID,
		CreatedAt:     s.clock.Now().UnixMilli(),
	}
	if err := storage.PutJSON(ctx, s.store, accountKey(lower), account); err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate checks a username (any case) and password
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	account, err := storage.GetJSON[model.Account](ctx, s.store, accountKey(strings.ToLower(username)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, account.PasswordHash, account.PasswordSalt, s.config.Iterations) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// CreateSession issues a new session token for the account
func (s *Service) CreateSession(ctx context.Context, username string, deviceID model.DeviceID) (string, *model.Session, error) {
	token := s.random.String(tokenLength, hexAlphabet)
	session := &model.Session{
		Username:  username,
		DeviceID:  deviceID,
		ExpiresAt: s.clock.Now().Add(s.config.SessionDuration).UnixMilli(),
	}
	if err := storage.PutJSON(ctx, s.store, sessionKey(token), session); err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// ValidateSession returns the session for token. Expired sessions are
// deleted as they are found.
func (s *Service) ValidateSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := storage.GetJSON[model.Session](ctx, s.store, sessionKey(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if session.ExpiresAt < s.clock.Now().UnixMilli() {
		if err := s.InvalidateSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrInvalidSession
	}
	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(ctx context.Context, token string) error {
	return s.store.Delete(ctx, sessionKey(token))
}

// HashPassword derives a hex PBKDF2-SHA256 key. The salt string's bytes are
// used as the salt so existing hashes stay verifiable.
func HashPassword(password, salt string, iterations int) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword reports whether password matches the stored hash
func VerifyPassword(password, storedHash, salt string, iterations int) bool {
	computed := HashPassword(password, salt, iterations)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
