package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "reservio/pkg/errors"
	"reservio/pkg/model"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access/refresh token pairs.
// Tokens are stateless; logout is a client-side discard.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *TokenManager) NewTokenPair(user *model.User) (*model.TokenPair, error) {
	access, err := m.sign(user.ID, string(user.Role), TokenTypeAccess, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := m.sign(user.ID, "", TokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) sign(userID int64, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies signature, expiry and token type, returning the caller's
// identity. Wrong-type tokens (refresh where access is expected and vice
// versa) are rejected.
func (m *TokenManager) Parse(tokenString, expectedType string) (int64, model.Role, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", apperrors.Unauthorized("Invalid token")
	}

	if claims.Type != expectedType {
		return 0, "", apperrors.Unauthorized("Invalid token type")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", apperrors.Unauthorized("Invalid token subject")
	}

	role := model.Role(claims.Role)
	if expectedType == TokenTypeAccess && !role.Valid() {
		return 0, "", apperrors.Unauthorized("Invalid token role")
	}

	return userID, role, nil
}
