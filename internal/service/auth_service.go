package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"mentorly/api/internal/ids"
	"mentorly/api/internal/models"
	"mentorly/api/internal/repository"
	"mentorly/api/internal/security"
)

// Login keeps "no account" and "wrong password" distinct on purpose: the
// platform has always reported them separately. That is a known account
// enumeration weakness; collapsing the two is a product decision, not a
// refactor.
var (
	ErrAccountNotFound    = errors.New("no account found")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnknownRole        = errors.New("unknown role")
	ErrMissingCredentials = errors.New("email and password required")
)

// CredentialStore is the capability set a role collection must expose to
// participate in login. One pgx repository per role satisfies it.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (models.Identity, error)
	GetByID(ctx context.Context, id string) (models.Identity, error)
	Create(ctx context.Context, identity models.Identity) error
	UpdateStatus(ctx context.Context, id string, status models.IdentityStatus) error
}

// AuthService verifies credentials at login. It never participates in
// request-time session checks; the guard trusts the signed payload.
type AuthService struct {
	stores map[models.Role]CredentialStore
	log    zerolog.Logger
}

func NewAuthService(stores map[models.Role]CredentialStore, log zerolog.Logger) *AuthService {
	return &AuthService{stores: stores, log: log}
}

func (s *AuthService) Login(ctx context.Context, role models.Role, email, password string) (models.Identity, error) {
	store, ok := s.stores[role]
	if !ok {
		return models.Identity{}, ErrUnknownRole
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.Identity{}, ErrMissingCredentials
	}

	identity, err := store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return models.Identity{}, ErrAccountNotFound
		}
		return models.Identity{}, err
	}

	if identity.Status != models.IdentityStatusActive {
		return models.Identity{}, ErrAccountDeactivated
	}

	ok, err = security.VerifyPassword(password, identity.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("identity_id", identity.ID).Msg("password verify failed")
		return models.Identity{}, ErrIncorrectPassword
	}
	if !ok {
		return models.Identity{}, ErrIncorrectPassword
	}

	return identity, nil
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Year        int
	College     string
}

// Register creates a student or mentor account. Admin accounts are
// provisioned out of band, never through self-registration. Mentors start
// with a pending approval status.
func (s *AuthService) Register(ctx context.Context, role models.Role, input RegisterInput) (models.Identity, error) {
	if role != models.RoleStudent && role != models.RoleMentor {
		return models.Identity{}, ErrUnknownRole
	}
	store := s.stores[role]

	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return models.Identity{}, ErrMissingCredentials
	}

	if _, err := store.FindByEmail(ctx, input.Email); err == nil {
		return models.Identity{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrIdentityNotFound) {
		return models.Identity{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Identity{}, err
	}

	identity := models.Identity{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  input.DisplayName,
		Role:         role,
		Status:       models.IdentityStatusActive,
	}
	switch role {
	case models.RoleStudent:
		year := input.Year
		if year == 0 {
			year = 1
		}
		identity.Attributes = models.RoleAttributes{Year: year, College: input.College}
	case models.RoleMentor:
		identity.Attributes = models.RoleAttributes{ApprovalStatus: models.ApprovalPending}
	}

	if err := store.Create(ctx, identity); err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// Deactivate flips an identity to inactive. Existing session cookies keep
// working until they expire; there is no server-side revocation.
func (s *AuthService) Deactivate(ctx context.Context, role models.Role, id string) error {
	store, ok := s.stores[role]
	if !ok {
		return ErrUnknownRole
	}
	if err := store.UpdateStatus(ctx, id, models.IdentityStatusInactive); err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}
