package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing
const BcryptCost = 12

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords so
	// that login responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims represents the JWT claims embedded in a session token
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// SessionStatus is the result of a session check. Verification failures
// deliberately degrade to IsAuthenticated=false instead of an error.
type SessionStatus struct {
	IsAuthenticated bool
	User            *domain.User
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, name, email, password, imageURL string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	Session(ctx context.Context, tokenString string) (*SessionStatus, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo    repository.UserRepository
	jwtSecret   string
	tokenExpiry time.Duration
	adminEmails map[string]bool
}

// NewAuthService creates a new instance of AuthService. adminEmails is the
// explicit allowlist of accounts granted the admin role at registration.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenExpiry time.Duration, adminEmails []string) AuthService {
	allow := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		allow[strings.ToLower(e)] = true
	}
	return &authService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		adminEmails: allow,
	}
}

// Register creates a new user account with a hashed password. The email is
// lowercased before storage so that case variants of one address resolve to
// one account. The role comes from the admin allowlist, not from any request
// field.
func (s *authService) Register(ctx context.Context, name, email, password, imageURL string) (*domain.User, error) {
	email = strings.ToLower(email)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domain.RoleUser
	if s.adminEmails[email] {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		ImageURL:     imageURL,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// The unique email index is the conflict authority; no pre-check race
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, repository.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and issues a signed session token. Email lookup
// is case-insensitive, matching the normalization applied at registration.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// Session verifies a token and re-fetches the user to confirm continued
// existence. The token payload is never trusted on its own. Any verification
// failure, including a deleted account, reports unauthenticated.
func (s *authService) Session(ctx context.Context, tokenString string) (*SessionStatus, error) {
	unauthenticated := &SessionStatus{IsAuthenticated: false}

	if tokenString == "" {
		return unauthenticated, nil
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return unauthenticated, nil
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return unauthenticated, nil
		}
		return nil, fmt.Errorf("failed to re-fetch user: %w", err)
	}

	return &SessionStatus{IsAuthenticated: true, User: user}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *authService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
