package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"stoa/internal/config"
	"stoa/internal/model"
)

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id string) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)

	createCalls int
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = "user-1"
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.NewNotFound("user")
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.NewNotFound("user")
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		AccessTokenMaxAge: 900,
	}
}

func TestUserService_Register_IssuesToken(t *testing.T) {
	repo := &mockUserRepository{}
	svc := NewUserService(repo, testAuthConfig())

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Username: "seneca",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("no access token issued")
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("expires_in = %d, want 900", resp.ExpiresIn)
	}

	// The token must carry the created user's ID as a string claim.
	token, err := jwt.Parse(resp.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"] != "user-1" {
		t.Errorf("user_id claim = %v, want user-1", claims["user_id"])
	}
}

func TestUserService_Register_HashesPassword(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = "user-1"
			stored = user
			return nil
		},
	}
	svc := NewUserService(repo, testAuthConfig())

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Username: "seneca",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if stored.PasswordHashed == "correct-horse-battery" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHashed), []byte("correct-horse-battery")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestUserService_Register_UsernameTaken(t *testing.T) {
	repo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(repo, testAuthConfig())

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Username: "seneca",
		Password: "correct-horse-battery",
	})
	if model.KindOf(err) != model.KindConflict {
		t.Fatalf("error kind = %v, want conflict", model.KindOf(err))
	}
	if repo.createCalls != 0 {
		t.Error("Create called for a taken username")
	}
}

func TestUserService_Login_IndistinguishableFailures(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	repo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			if username == "seneca" {
				return &model.User{ID: "user-1", Username: "seneca", PasswordHashed: string(hashed)}, nil
			}
			return nil, model.NewNotFound("user")
		},
	}
	svc := NewUserService(repo, testAuthConfig())

	_, errNoUser := svc.Login(context.Background(), model.LoginRequest{Username: "nobody", Password: "whatever"})
	_, errBadPass := svc.Login(context.Background(), model.LoginRequest{Username: "seneca", Password: "wrong-password"})

	if model.KindOf(errNoUser) != model.KindAuthentication || model.KindOf(errBadPass) != model.KindAuthentication {
		t.Fatalf("kinds = %v / %v, want authentication for both", model.KindOf(errNoUser), model.KindOf(errBadPass))
	}
	// Unknown username and wrong password must not be distinguishable.
	if errNoUser.Error() != errBadPass.Error() {
		t.Errorf("login failures differ: %q vs %q", errNoUser.Error(), errBadPass.Error())
	}
}

func TestUserService_Login_Succeeds(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	repo := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: "seneca", PasswordHashed: string(hashed)}, nil
		},
	}
	svc := NewUserService(repo, testAuthConfig())

	resp, err := svc.Login(context.Background(), model.LoginRequest{Username: "seneca", Password: "right-password"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.User == nil || resp.User.ID != "user-1" {
		t.Errorf("unexpected token response: %+v", resp)
	}
}
