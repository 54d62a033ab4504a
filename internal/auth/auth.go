package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/proworkshop/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
)

const (
	// DefaultTokenExpiry is used when a non-positive access token expiry is configured.
	DefaultTokenExpiry = time.Hour
	// DefaultRefreshExpiry is how long a refresh token stays usable unless
	// WithRefreshExpiry says otherwise.
	DefaultRefreshExpiry = 7 * 24 * time.Hour

	refreshTokenBytes = 32
)

// Service handles authentication operations
type Service struct {
	jwtSecret  []byte
	tokenExp   time.Duration
	refreshExp time.Duration
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithRefreshExpiry sets the lifetime of issued refresh tokens. Non-positive
// values keep the default.
func WithRefreshExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshExp = d
		}
	}
}

// NewService creates a new authentication service signing tokens with secret
func NewService(secret string, tokenExp time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if tokenExp <= 0 {
		tokenExp = DefaultTokenExpiry
	}

	s := &Service{
		jwtSecret:  []byte(secret),
		tokenExp:   tokenExp,
		refreshExp: DefaultRefreshExpiry,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TokenExpiry reports how long issued tokens stay valid
func (s *Service) TokenExpiry() time.Duration {
	return s.tokenExp
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// tokenClaims is the signed payload of an access token.
type tokenClaims struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an access token for user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExp)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ValidateToken checks signature, expiry and identity fields of an access
// token. A leading "Bearer " is ignored.
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.UserID <= 0 || claims.Username == "" || !models.IsValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Exp:      claims.ExpiresAt.Unix(),
	}, nil
}

// RefreshToken is an opaque long-lived credential. Only Digest is stored;
// Token is handed to the client once.
type RefreshToken struct {
	Token     string
	Digest    string
	ExpiresAt time.Time
}

// IssueRefreshToken creates a random refresh token valid for the configured
// refresh lifetime.
func (s *Service) IssueRefreshToken() (RefreshToken, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(buf)
	return RefreshToken{
		Token:     token,
		Digest:    HashRefreshToken(token),
		ExpiresAt: s.now().Add(s.refreshExp).UTC(),
	}, nil
}

// HashRefreshToken returns the lookup digest stored for a refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshExpired reports whether a stored refresh expiry has passed. A
// missing expiry counts as expired.
func (s *Service) RefreshExpired(expiresAt *time.Time) bool {
	return expiresAt == nil || !s.now().Before(*expiresAt)
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		return "", ErrInvalidToken
	}
	return token, nil
}
