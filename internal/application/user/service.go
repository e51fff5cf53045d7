package user

import (
	"context"
	"errors"
	"strings"

	"taskdesk-backend/internal/application/emails"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/repository"
	"taskdesk-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Service holds user registration and credential checks.
type Service struct {
	Users *repository.Users
	Mail  emails.Sender // nil disables welcome emails
	// Cost overrides bcrypt.DefaultCost; tests lower it.
	Cost int
}

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Password string  `json:"password"`
}

var errInvalidCredentials = domain.Forbidden("Invalid email or password.")

// dummyHash keeps Authenticate's cost the same for unknown emails.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskdesk-dummy-password-1"), bcrypt.MinCost)

func (s *Service) cost() int {
	if s.Cost > 0 {
		return s.Cost
	}
	return bcrypt.DefaultCost
}

// CreateUser registers a user. The email is stored trimmed and lowercase.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, domain.Validation("Invalid email format.")
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, domain.Validation("Password must be 8 to 72 characters and contain a letter and a number.")
	}
	var name *string
	if in.Name != nil {
		if trimmed := strings.TrimSpace(*in.Name); trimmed != "" {
			if !validation.IsValidName(trimmed) {
				return nil, domain.Validation("Name contains invalid characters.")
			}
			name = &trimmed
		}
	}

	if _, err := s.Users.FindByEmail(ctx, email); err == nil {
		return nil, domain.Conflict("Email already registered.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: email, Name: name, PasswordHash: string(hash)}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.Mail != nil {
		first := ""
		if name != nil {
			first = strings.Fields(*name)[0]
		}
		if err := s.Mail.SendWelcome(ctx, u.Email, first); err != nil {
			log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("welcome email failed")
		}
	}
	return u, nil
}

// Authenticate verifies a credential. Unknown email and wrong password fail
// with the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.Users.FindByID(ctx, id)
}
