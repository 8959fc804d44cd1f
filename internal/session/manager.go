package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
	"github.com/noah-isme/sma-timetable-portal/pkg/signer"
)

// ManagerConfig tunes session lifetime.
type ManagerConfig struct {
	TTL    time.Duration
	Clock  func() time.Time
	Logger *zap.Logger
}

// Manager resolves signed cookies to sessions.
type Manager struct {
	store  Store
	signer *signer.Signer
	ttl    time.Duration
	clock  func() time.Time
	logger *zap.Logger
}

// NewManager builds a manager.
func NewManager(store Store, s *signer.Signer, cfg ManagerConfig) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{store: store, signer: s, ttl: cfg.TTL, clock: cfg.Clock, logger: cfg.Logger}
}

// TTL is the idle lifetime of a session.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Now is the manager's clock.
func (m *Manager) Now() time.Time { return m.clock() }

// Resolve returns the session behind cookie, starting a new one when the
// cookie is missing, forged or expired. The second value is the signed cookie
// to send back.
func (m *Manager) Resolve(ctx context.Context, cookie string) (*Session, string, error) {
	if cookie != "" {
		id, err := m.signer.Verify(cookie)
		if err == nil {
			s, err := m.store.Get(ctx, id)
			switch {
			case err == nil:
				if s.Credential != nil && !s.Credential.Valid(m.clock()) {
					s.Credential = nil
				}
				return s, cookie, nil
			case !errors.Is(err, appErrors.ErrSessionNotFound):
				return nil, "", err
			}
		} else {
			m.logger.Debug("rejecting session cookie", zap.Error(err))
		}
	}
	return m.start()
}

func (m *Manager) start() (*Session, string, error) {
	now := m.clock()
	s := &Session{
		ID:        uuid.NewString(),
		Filters:   filters.NewStore(m.clock, nil).State(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	cookie, err := m.signer.Sign(s.ID)
	if err != nil {
		return nil, "", err
	}
	return s, cookie, nil
}

// Save persists the session and refreshes its lifetime.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = m.clock()
	return m.store.Save(ctx, s, m.ttl)
}

// Touch renews the idle lifetime of an unchanged session.
func (m *Manager) Touch(ctx context.Context, s *Session) error {
	return m.store.Touch(ctx, s.ID, m.ttl)
}

// Destroy removes the session.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
