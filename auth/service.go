package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password. Lookup misses
	// and hash mismatches both map here so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrMissingFields signals a signup with a required field left empty.
	ErrMissingFields = errors.New("auth: name, email, password and userType are required")
	// ErrInvalidUserType signals a user type outside the farmer/company enum.
	ErrInvalidUserType = errors.New("auth: invalid user type")
)

// tokenTTL bounds how long a minted session token stays valid.
const tokenTTL = 24 * time.Hour

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
}

// LoginResult bundles the session token and domain user returned after a
// successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
	}
}

// Signup creates a new account. It returns ErrDuplicateEmail when the email
// is already registered, whether caught by the pre-check or by the store's
// unique constraint, and grants no session: the caller must log in.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" || req.UserType == "" {
		return nil, ErrMissingFields
	}

	userType := UserType(strings.TrimSpace(string(req.UserType)))
	if !isValidUserType(userType) {
		return nil, fmt.Errorf("%w %q", ErrInvalidUserType, userType)
	}

	if _, err := s.repo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		UserType:     userType,
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Login authenticates a user and returns the user plus a signed session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID, user.UserType)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token: token,
		User:  user,
	}, nil
}

// GetUserByID retrieves account information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyToken validates a session token and returns the user ID and type.
func (s *Service) VerifyToken(tokenString string) (string, UserType, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return "", "", fmt.Errorf("auth: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid user_id in token")
		}
		typeStr, ok := claims["user_type"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid user_type in token")
		}
		userType := UserType(typeStr)
		if !isValidUserType(userType) {
			return "", "", fmt.Errorf("auth: invalid user type %q in token", typeStr)
		}
		return userID, userType, nil
	}

	return "", "", fmt.Errorf("auth: invalid token")
}

// generateToken creates a session token for the user.
func (s *Service) generateToken(userID string, userType UserType) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   userID,
		"user_type": userType,
		"exp":       now.Add(tokenTTL).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func isValidUserType(t UserType) bool {
	switch t {
	case UserTypeFarmer, UserTypeCompany:
		return true
	default:
		return false
	}
}
