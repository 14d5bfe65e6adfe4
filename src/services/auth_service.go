package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionIssuer = "cjs-backend"

// SessionClaims are the JWT claims carried by a human session token.
// Tokens are stateless: verification needs no database round trip
// beyond re-loading the user to check account status.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies human session tokens
type AuthService struct {
	users         repositories.UserRepository
	jwtSecret     []byte
	sessionExpiry time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(users repositories.UserRepository, jwtSecret string, sessionExpiry time.Duration) (*AuthService, error) {
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters long")
	}
	return &AuthService{
		users:         users,
		jwtSecret:     []byte(jwtSecret),
		sessionExpiry: sessionExpiry,
	}, nil
}

// Login verifies an email/password pair against the user store and
// returns a signed session token. Account creation and password
// management belong to the accounts subsystem.
func (as *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := as.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return "", nil, ErrAccountInactive
	}

	token, err := as.GenerateSessionToken(user)
	if err != nil {
		return "", nil, err
	}

	if err := as.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Best effort: a failed timestamp must not fail the login
		return token, user, nil
	}
	return token, user, nil
}

// GenerateSessionToken signs a session token for the user
func (as *AuthService) GenerateSessionToken(user *models.User) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: user.ID.String(),
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(as.sessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken verifies the token signature and expiry and
// returns the embedded claims. Distinguishes expiry from every other
// verification failure so the caller can surface a precise remediation.
func (as *AuthService) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionInvalid
	}
	if !token.Valid {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

// LoadSessionUser re-loads the user a verified session references and
// checks the account status has not changed since issuance
func (as *AuthService) LoadSessionUser(ctx context.Context, claims *SessionClaims) (*models.User, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	user, err := as.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// SeedAdmin creates the initial admin account if no admin exists yet.
// Used on first run when ADMIN_EMAIL and ADMIN_PASSWORD are set.
func (as *AuthService) SeedAdmin(ctx context.Context, email, password string) (*models.User, error) {
	if len(password) < 8 {
		return nil, errors.New("admin password must be at least 8 characters")
	}

	hasAdmins, err := as.users.HasAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing admins: %w", err)
	}
	if hasAdmins {
		return nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := as.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	return user, nil
}
