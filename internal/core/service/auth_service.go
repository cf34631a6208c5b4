package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
	"github.com/nextlevel/order-desk/internal/metrics"
)

const minPasswordLength = 6

var _ ports.AuthService = (*AuthService)(nil)

// AuthService implements registration, login and session handling.
type AuthService struct {
	users    ports.UserRepository
	audit    ports.AuditRepository
	sessions ports.SessionStore
	tokens   ports.TokenManager
	logger   zerolog.Logger

	now          func() time.Time
	newSessionID func() string
	hashCost     int
}

func NewAuthService(
	users ports.UserRepository,
	audit ports.AuditRepository,
	sessions ports.SessionStore,
	tokens ports.TokenManager,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		audit:        audit,
		sessions:     sessions,
		tokens:       tokens,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		newSessionID: uuid.NewString,
		hashCost:     bcrypt.DefaultCost,
	}
}

// Register creates a client account. Staff accounts are only created by SeedStaff.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleClient,
		Status:       domain.UserActive,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if err := s.appendAudit(ctx, created.ID, domain.ActionRegister, "New user registered"); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", created.ID).Str("email", created.Email).Msg("user registered")
	return created, nil
}

// Login verifies credentials and opens a session. Failed attempts are not
// audited and do not reveal whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.logger.Warn().Int64("user_id", user.ID).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	sid := s.newSessionID()
	token, expiresAt, err := s.tokens.Issue(user, sid)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.sessions.Save(ctx, sid, user.ID, s.tokens.TTL()); err != nil {
		return nil, fmt.Errorf("login: save session: %w", err)
	}

	if err := s.appendAudit(ctx, user.ID, domain.ActionLogin, "User logged in"); err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout ends the session named by token.
func (s *AuthService) Logout(ctx context.Context, actor *domain.User, token string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	if claims.UserID != actor.ID {
		return domain.ErrUnauthenticated
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if err := s.appendAudit(ctx, actor.ID, domain.ActionLogout, "User logged out"); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", actor.ID).Msg("user logged out")
	return nil
}

// Authenticate resolves token to the current user record. The session must
// still be live and the user must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	userID, err := s.sessions.Lookup(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		return nil, fmt.Errorf("%w: session does not match token", domain.ErrUnauthenticated)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

// SeedStaff creates the configured staff accounts that do not exist yet.
func (s *AuthService) SeedStaff(ctx context.Context, seeds []ports.StaffSeed) error {
	for _, seed := range seeds {
		email := normalizeEmail(seed.Email)
		if !seed.Role.Valid() {
			return fmt.Errorf("%w: seed %s has unknown role %q", domain.ErrValidation, email, seed.Role)
		}

		_, err := s.users.FindByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("seed %s: %w", email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), s.hashCost)
		if err != nil {
			return fmt.Errorf("seed %s: hash password: %w", email, err)
		}
		created, err := s.users.Create(ctx, &domain.User{
			Email:        email,
			Name:         seed.Name,
			PasswordHash: string(hash),
			Role:         seed.Role,
			Status:       domain.UserActive,
			CreatedAt:    s.now(),
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("seed %s: %w", email, err)
		}
		s.logger.Info().Int64("user_id", created.ID).Str("email", email).Str("role", string(seed.Role)).Msg("seeded account")
	}
	return nil
}

func (s *AuthService) appendAudit(ctx context.Context, userID int64, action domain.AuditAction, details string) error {
	entry := &domain.AuditEntry{UserID: userID, Action: action, Details: details, CreatedAt: s.now()}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("action", string(action)).Msg("failed to append audit entry")
		return fmt.Errorf("append audit %s: %w", action, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
