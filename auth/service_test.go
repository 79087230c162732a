package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_SignupAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := SignupRequest{
		Name:     "Arjun Singh",
		Email:    "arjun@example.com",
		Password: "p",
		UserType: UserTypeFarmer,
	}

	ctx := context.Background()
	user, err := svc.Signup(ctx, req)
	if err != nil {
		t.Fatalf("signup: unexpected error: %v", err)
	}

	if user.Email != req.Email {
		t.Fatalf("expected email %q got %q", req.Email, user.Email)
	}
	if user.UserType != UserTypeFarmer {
		t.Fatalf("signup: expected user type %s got %s", UserTypeFarmer, user.UserType)
	}
	if user.PasswordHash == req.Password {
		t.Fatal("signup: password stored in cleartext")
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.User.ID != user.ID {
		t.Fatalf("login: expected user id %q got %q", user.ID, resp.User.ID)
	}

	tokenUserID, tokenType, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenUserID != user.ID {
		t.Fatalf("verify token: expected %q got %q", user.ID, tokenUserID)
	}
	if tokenType != UserTypeFarmer {
		t.Fatalf("verify token: expected user type %s got %s", UserTypeFarmer, tokenType)
	}
}

func TestService_SignupValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	if _, err := svc.Signup(context.Background(), SignupRequest{
		Name:     "",
		Email:    "arjun@example.com",
		Password: "secret",
		UserType: UserTypeFarmer,
	}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	if _, err := svc.Signup(context.Background(), SignupRequest{
		Name:     "Arjun Singh",
		Email:    "arjun@example.com",
		Password: "secret",
		UserType: "middleman",
	}); err == nil {
		t.Fatal("expected error for invalid user type")
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := SignupRequest{
		Name:     "Arjun Singh",
		Email:    "arjun@example.com",
		Password: "secret",
		UserType: UserTypeCompany,
	}
	if _, err := svc.Signup(context.Background(), req); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	if _, err := svc.Signup(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	ctx := context.Background()

	// Unknown email and wrong password must be indistinguishable.
	_, err := svc.Login(ctx, LoginRequest{
		Email:    "unknown@example.com",
		Password: "irrelevant",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Signup(ctx, SignupRequest{
		Name:     "Arjun Singh",
		Email:    "arjun@example.com",
		Password: "secret",
		UserType: UserTypeFarmer,
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "arjun@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestService_VerifyTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeRepository(), "test-secret")

	if _, _, err := svc.VerifyToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	other := NewService(newFakeRepository(), "other-secret")
	repo := newFakeRepository()
	signer := NewService(repo, "test-secret")
	if _, err := signer.Signup(context.Background(), SignupRequest{
		Name: "A", Email: "a@x.com", Password: "p", UserType: UserTypeFarmer,
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	res, err := signer.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "p"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := other.VerifyToken(res.Token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

type fakeRepository struct {
	usersByEmail map[string]User
	usersByID    map[string]User
	nextID       int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		usersByEmail: make(map[string]User),
		usersByID:    make(map[string]User),
		nextID:       1,
	}
}

func (f *fakeRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if _, exists := f.usersByEmail[strings.ToLower(params.Email)]; exists {
		return User{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("user-%d", f.nextID)
	f.nextID++

	user := User{
		ID:           id,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		UserType:     params.UserType,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	f.usersByEmail[strings.ToLower(user.Email)] = user
	f.usersByID[user.ID] = user

	return user, nil
}

func (f *fakeRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := f.usersByEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) GetUserByID(ctx context.Context, userID string) (User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
