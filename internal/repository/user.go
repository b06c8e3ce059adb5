package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"stoa/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, country_flag, is_verified, phronesis, created_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.GetContext(ctx, user, `
		INSERT INTO users (username, password_hash, country_flag)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns+`
	`, user.Username, user.PasswordHashed, user.CountryFlag)
	if err != nil {
		return translate(err, "user")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, translate(err, "user")
	}
	return exists, nil
}
