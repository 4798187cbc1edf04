package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionIssuer = "clawdash"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid session")
)

// SessionClaims are carried in the signed session cookie. ID is the
// server-side session id checked against the SessionStore.
type SessionClaims struct {
	jwt.RegisteredClaims
}

func (c *SessionClaims) Username() string { return c.Subject }

// SessionStore tracks live session ids so that logout revokes a token before
// it expires.
type SessionStore interface {
	Save(ctx context.Context, id, username string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// AuthService checks the single configured account and mints signed session
// tokens bound to it.
type AuthService struct {
	username     string
	password     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	store        SessionStore
	now          func() time.Time
}

func NewAuthService(cfg config.AuthConfig, store SessionStore) *AuthService {
	if store == nil {
		store = NewMemorySessionStore()
	}
	svc := &AuthService{
		username: cfg.Username,
		password: cfg.Password,
		secret:   []byte(cfg.SessionSecret),
		ttl:      cfg.SessionTTL,
		store:    store,
		now:      time.Now,
	}
	if cfg.PasswordHash != "" {
		svc.passwordHash = []byte(cfg.PasswordHash)
	}
	return svc
}

func (s *AuthService) TTL() time.Duration { return s.ttl }

// Login verifies the pair and returns a signed token. Both fields are always
// compared so a mismatch reveals nothing about which one was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := s.checkPassword(password)
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	if err := s.store.Save(ctx, claims.ID, username, s.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *AuthService) checkPassword(password string) bool {
	if len(s.passwordHash) > 0 {
		return bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

// Verify checks signature, expiry, subject and that the session is still live.
func (s *AuthService) Verify(ctx context.Context, token string) (*SessionClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	live, err := s.store.Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if !live {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Logout revokes the session behind token. An unparseable token has nothing
// to revoke.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.store.Delete(ctx, claims.ID)
}

func (s *AuthService) parse(token string) (*SessionClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject != s.username || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// MemorySessionStore is the fallback SessionStore when Redis is not configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (m *MemorySessionStore) Save(_ context.Context, id, _ string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, exp := range m.sessions {
		if now.After(exp) {
			delete(m.sessions, k)
		}
	}
	m.sessions[id] = now.Add(ttl)
	return nil
}

func (m *MemorySessionStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if m.now().After(exp) {
		delete(m.sessions, id)
		return false, nil
	}
	return true, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
