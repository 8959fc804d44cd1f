package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
	"github.com/noah-isme/sma-timetable-portal/internal/session"
	appErrors "github.com/noah-isme/sma-timetable-portal/pkg/errors"
)

type accountClient interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Favorites(ctx context.Context, token string) ([]models.Favorite, error)
	CreateFavorite(ctx context.Context, token string, req models.FavoriteCreate) (*models.Favorite, error)
	DeleteFavorite(ctx context.Context, token string, id int64) error
	Notifications(ctx context.Context, token string, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, token string) (int, error)
	MarkRead(ctx context.Context, token string, id int64) error
	MarkAllRead(ctx context.Context, token string) error
}

// AccountConfig configures credential lifetime.
type AccountConfig struct {
	// CredentialTTL applies when the token carries no expiry.
	CredentialTTL time.Duration
	Clock         func() time.Time
}

// AccountService wraps the account endpoints of the timetable API. Reads
// without a credential return empty results; writes require one.
type AccountService struct {
	client    accountClient
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	clock     func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(client accountClient, validate *validator.Validate, logger *zap.Logger, cfg AccountConfig) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CredentialTTL <= 0 {
		cfg.CredentialTTL = 24 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &AccountService{client: client, validator: validate, logger: logger, ttl: cfg.CredentialTTL, clock: cfg.Clock}
}

// Login exchanges credentials for a session credential.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*session.Credential, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	auth, err := s.client.Login(ctx, req)
	if err != nil {
		s.logger.Info("login rejected", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	cred := session.NewCredential(auth, s.clock(), s.ttl)
	s.logger.Info("user logged in", zap.Int64("user_id", cred.User.ID), zap.Time("expires_at", cred.ExpiresAt))
	return cred, nil
}

// Register creates an account and signs it in.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*session.Credential, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FIO = strings.TrimSpace(req.FIO)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	auth, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	cred := session.NewCredential(auth, s.clock(), s.ttl)
	s.logger.Info("user registered", zap.Int64("user_id", cred.User.ID))
	return cred, nil
}

// Favorites lists saved filter sets.
func (s *AccountService) Favorites(ctx context.Context, token string) ([]models.Favorite, error) {
	if token == "" {
		return []models.Favorite{}, nil
	}
	return s.client.Favorites(ctx, token)
}

// SaveFavorite stores the current filters under name.
func (s *AccountService) SaveFavorite(ctx context.Context, token, name string, state filters.State) (*models.Favorite, error) {
	if token == "" {
		return nil, appErrors.ErrUnauthorized
	}
	req := models.FavoriteCreate{Name: strings.TrimSpace(name), Filters: state.Favorite()}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid favorite payload")
	}
	return s.client.CreateFavorite(ctx, token, req)
}

// Favorite finds one saved favorite.
func (s *AccountService) Favorite(ctx context.Context, token string, id int64) (*models.Favorite, error) {
	favorites, err := s.Favorites(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range favorites {
		if favorites[i].ID == id {
			return &favorites[i], nil
		}
	}
	return nil, appErrors.ErrNotFound
}

// DeleteFavorite removes a favorite.
func (s *AccountService) DeleteFavorite(ctx context.Context, token string, id int64) error {
	if token == "" {
		return appErrors.ErrUnauthorized
	}
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid favorite id")
	}
	return s.client.DeleteFavorite(ctx, token, id)
}

// Notifications lists notifications.
func (s *AccountService) Notifications(ctx context.Context, token string, unreadOnly bool) ([]models.Notification, error) {
	if token == "" {
		return []models.Notification{}, nil
	}
	return s.client.Notifications(ctx, token, unreadOnly)
}

// UnreadCount returns zero without a credential.
func (s *AccountService) UnreadCount(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	return s.client.UnreadCount(ctx, token)
}

// MarkRead marks one notification as read.
func (s *AccountService) MarkRead(ctx context.Context, token string, id int64) error {
	if token == "" {
		return appErrors.ErrUnauthorized
	}
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid notification id")
	}
	return s.client.MarkRead(ctx, token, id)
}

// MarkAllRead marks every notification as read.
func (s *AccountService) MarkAllRead(ctx context.Context, token string) error {
	if token == "" {
		return appErrors.ErrUnauthorized
	}
	return s.client.MarkAllRead(ctx, token)
}
