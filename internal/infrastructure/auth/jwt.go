package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/infrastructure/config"
)

// Role determines what a token holder may do: admins assign dues and
// review payments, members submit payments for their own pharmacy.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingRole      = errors.New("missing role in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims represents custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	PharmacyID string `json:"pharmacy_id,omitempty"`
}

// IssuedToken is a signed token with its expiry
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // Bearer
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := cfg.Expiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: expiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	UserID   uuid.UUID
	Username string
	Role     Role
	// PharmacyID links a member token to the pharmacy it may act for.
	// Admin tokens leave it empty.
	PharmacyID *uuid.UUID
}

// GenerateToken signs a token for the given user
func (s *JWTService) GenerateToken(input GenerateTokenInput) (*IssuedToken, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	if input.Role != RoleAdmin && input.Role != RoleMember {
		return nil, ErrMissingRole
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   input.UserID.String(),
		Username: input.Username,
		Role:     input.Role,
	}
	if input.PharmacyID != nil {
		claims.PharmacyID = input.PharmacyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{
		Token:     signed,
		ExpiresAt: now.Add(s.expiration),
		TokenType: "Bearer",
	}, nil
}

// ValidateToken validates a token string and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if claims.Role != RoleAdmin && claims.Role != RoleMember {
		return nil, ErrMissingRole
	}

	return claims, nil
}

// GetUserUUID extracts and parses the user ID from claims
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// GetPharmacyUUID extracts the pharmacy ID from claims.
// Returns uuid.Nil without error when the claim is absent.
func (c *Claims) GetPharmacyUUID() (uuid.UUID, error) {
	if c.PharmacyID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(c.PharmacyID)
}

// IsAdmin reports whether the token carries the admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanActFor reports whether the token holder may act on behalf of the given
// pharmacy. Admins may act for any pharmacy, members only for their own.
func (c *Claims) CanActFor(pharmacyID uuid.UUID) bool {
	if c.IsAdmin() {
		return true
	}
	return c.PharmacyID == pharmacyID.String()
}

// GetIssuedAtTime returns the token's issued-at time as time.Time
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetExpiration returns the configured token lifetime
func (s *JWTService) GetExpiration() time.Duration {
	return s.expiration
}
