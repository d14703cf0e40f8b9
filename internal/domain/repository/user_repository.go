package repository

import (
	"context"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	// Create persiste un nuevo usuario. ErrEmailAlreadyExists si el email ya existe.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail busca por email. (nil, nil) si no existe.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID busca por ID. (nil, nil) si no existe.
	FindByID(ctx context.Context, id string) (*entity.User, error)
}
