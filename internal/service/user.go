package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"stoa/internal/config"
	"stoa/internal/model"
	"stoa/internal/repository"
)

// UserService handles registration, login and access token issuance.
type UserService struct {
	userRepo repository.UserRepository
	config   *config.Config
}

func NewUserService(userRepo repository.UserRepository, cfg *config.Config) *UserService {
	return &UserService{
		userRepo: userRepo,
		config:   cfg,
	}
}

// Register creates a user account and logs them in.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.TokenResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, model.NewConflict("username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		PasswordHashed: string(hashed),
	}
	if req.CountryFlag != "" {
		user.CountryFlag = &req.CountryFlag
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[UserService] Register OK: user=%s username=%s", user.ID, user.Username)
	return s.issueToken(user)
}

// Login verifies credentials and issues an access token. Wrong username and
// wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, model.NewAuthentication("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.NewAuthentication("invalid username or password")
	}

	log.Printf("[UserService] Login OK: user=%s", user.ID)
	return s.issueToken(user)
}

// GetByID returns the user's profile.
func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserService) issueToken(user *model.User) (*model.TokenResponse, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: signed,
		ExpiresIn:   s.config.AccessTokenMaxAge,
		User:        user,
	}, nil
}
