package repository

import (
	"context"
	"fmt"
	"strings"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Users is not tenant-owned; lookups are unscoped.
type Users struct {
	db *gorm.DB
}

func (r *Users) Create(ctx context.Context, u *domain.User) error {
	if err := database.Conn(ctx, r.db).Create(u).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.Conflict("email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Users) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := database.Conn(ctx, r.db).First(&u, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// FindByEmail matches the stored lowercase email.
func (r *Users) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := database.Conn(ctx, r.db).
		First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}
