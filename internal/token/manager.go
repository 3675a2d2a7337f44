// Package token holds the remote credential: in memory always, at rest
// encrypted when possible, refreshed before expiry.
package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/readmark/readmark/internal/domain"
	"github.com/readmark/readmark/internal/logger"
)

// RefreshFunc exchanges a refresh token for a renewed credential.
// Implemented by the remote client; returns domain.ErrAuthExpired when
// the remote rejects the refresh token.
type RefreshFunc func(ctx context.Context, refreshToken string) (*domain.Credential, error)

// Manager is the single writer of the process-wide credential.
// All reads hand out copies; nothing outside this package mutates it.
type Manager struct {
	mu    sync.Mutex
	mem   *domain.Credential
	enc   credentialStore // nil when no passphrase is configured
	plain credentialStore

	refresh RefreshFunc
	group   singleflight.Group
	log     logger.Logger
	now     func() time.Time
}

// NewManager creates a credential manager persisting under dir.
// passphrase enables the encrypted store; with an empty passphrase only
// the plain store is used.
func NewManager(dir string, passphrase []byte, refresh RefreshFunc, log logger.Logger) *Manager {
	m := &Manager{
		plain:   newPlainStore(dir),
		refresh: refresh,
		log:     log,
		now:     time.Now,
	}
	if len(passphrase) > 0 {
		m.enc = newEncryptedStore(dir, passphrase)
	}
	return m
}

// Save stores the credential: memory first (always succeeds), then the
// encrypted store, falling back to the plain store. It returns
// domain.ErrStorageUnavailable only when every persistent path failed;
// the memory copy is kept either way, so the session can continue
// without surviving a restart.
func (m *Manager) Save(cred *domain.Credential) error {
	if cred.ExpiresAt == 0 {
		// Opaque tokens carry no expiry; JWT-shaped ones do.
		if exp, ok := jwtExpiry(cred.AccessToken); ok {
			cred.ExpiresAt = exp
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cred
	m.mem = &c

	return m.persistLocked(&c)
}

// persistLocked writes to the encrypted store, then the plain store on
// failure. Caller holds m.mu.
func (m *Manager) persistLocked(cred *domain.Credential) error {
	if m.enc != nil {
		err := m.enc.save(cred)
		if err == nil {
			// The plain copy is stale once the encrypted write lands.
			if werr := m.plain.wipe(); werr != nil {
				m.log.Warn("failed to remove plain token file after encrypted save",
					logger.Error(werr))
			}
			return nil
		}
		m.log.Warn("encrypted token store failed, falling back to plain store",
			logger.Error(err))
	}
	if err := m.plain.save(cred); err != nil {
		m.log.Error("all persistent token stores failed, keeping credential in memory only",
			logger.Error(err))
		return domain.ErrStorageUnavailable
	}
	return nil
}

// Get returns a copy of the credential, loading it from disk on first
// use. A nil credential with a nil error means nobody is signed in.
func (m *Manager) Get() (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mem != nil {
		c := *m.mem
		return &c, nil
	}

	if m.enc != nil {
		cred, err := m.enc.load()
		if err == nil {
			m.mem = cred
			c := *cred
			return &c, nil
		}
		if err != domain.ErrNotFound {
			m.log.Warn("failed to load encrypted credential, trying plain store",
				logger.Error(err))
		}
	}

	cred, err := m.plain.load()
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	// Opportunistic migration plain -> encrypted.
	if m.enc != nil {
		if serr := m.enc.save(cred); serr == nil {
			if werr := m.plain.wipe(); werr != nil {
				m.log.Warn("failed to remove plain token file after migration",
					logger.Error(werr))
			} else {
				m.log.Info("migrated credential from plain to encrypted store")
			}
		} else {
			m.log.Warn("failed to migrate credential to encrypted store",
				logger.Error(serr))
		}
	}

	m.mem = cred
	c := *cred
	return &c, nil
}

// IsValid reports whether a usable credential exists right now. An
// expired credential with a refresh token triggers a refresh first; the
// result of that refresh is the answer. Concurrent callers on the same
// expired credential share one refresh call.
func (m *Manager) IsValid(ctx context.Context) bool {
	cred, err := m.Get()
	if err != nil || cred == nil || cred.AccessToken == "" {
		return false
	}
	if !cred.Expired(m.now()) {
		return true
	}
	if cred.RefreshToken == "" {
		return false
	}
	return m.Refresh(ctx)
}

// Refresh renews the access token in place using the stored refresh
// token. It returns false on any failure without propagating an error;
// the caller decides whether to force a logout. At most one network
// refresh is in flight per credential generation.
func (m *Manager) Refresh(ctx context.Context) bool {
	cred, err := m.Get()
	if err != nil || cred == nil || cred.RefreshToken == "" {
		return false
	}

	// The key changes once a refresh succeeds, so later callers for the
	// next generation do not reuse a stale shared result.
	key := fmt.Sprintf("%s:%d", cred.RefreshToken, cred.ExpiresAt)
	_, err, _ = m.group.Do(key, func() (interface{}, error) {
		renewed, rerr := m.refresh(ctx, cred.RefreshToken)
		if rerr != nil {
			return nil, rerr
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.mem == nil {
			m.mem = &domain.Credential{}
		}
		m.mem.AccessToken = renewed.AccessToken
		m.mem.ExpiresAt = renewed.ExpiresAt
		if renewed.RefreshToken != "" {
			m.mem.RefreshToken = renewed.RefreshToken
		}
		c := *m.mem
		if perr := m.persistLocked(&c); perr != nil {
			m.log.Warn("failed to persist refreshed credential", logger.Error(perr))
		}
		return nil, nil
	})
	if err != nil {
		m.log.Warn("token refresh failed", logger.Error(err))
		return false
	}
	return true
}

// Clear wipes the credential everywhere. Idempotent; storage errors are
// logged and swallowed so logout always succeeds.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mem != nil {
		m.mem.Clear()
		m.mem = nil
	}
	if m.enc != nil {
		if err := m.enc.wipe(); err != nil {
			m.log.Warn("failed to wipe encrypted token store", logger.Error(err))
		}
	}
	if err := m.plain.wipe(); err != nil {
		m.log.Warn("failed to wipe plain token store", logger.Error(err))
	}
}

// jwtExpiry extracts the exp claim from a JWT-shaped access token.
// The signature is not verified; this is a client reading its own
// token's metadata, not an auth check.
func jwtExpiry(accessToken string) (int64, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return 0, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	return exp.UnixMilli(), true
}
