package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleDelivery UserRole = "DELIVERY"
)

type Claims struct {
	UserID    string   `json:"userId"`
	SessionID string   `json:"sessionId"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	Name      *string  `json:"name,omitempty"`
	TokenUse  string   `json:"tokenUse,omitempty"`
	jwt.RegisteredClaims
}

func ParseBearerToken(authHeader string) string {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func IssueAccessToken(userID, sessionID int64, role UserRole, email string, name *string, secret string, expirySeconds int64) (string, error) {
	return issueToken(userID, sessionID, role, email, name, "access", secret, expirySeconds)
}

func IssueRefreshToken(userID, sessionID int64, role UserRole, email string, secret string, expirySeconds int64) (string, error) {
	return issueToken(userID, sessionID, role, email, nil, "refresh", secret, expirySeconds)
}

func issueToken(userID, sessionID int64, role UserRole, email string, name *string, use string, secret string, expirySeconds int64) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret required")
	}
	now := time.Now()
	claims := &Claims{
		UserID:    strconv.FormatInt(userID, 10),
		SessionID: strconv.FormatInt(sessionID, 10),
		Role:      role,
		Email:     email,
		Name:      name,
		TokenUse:  use,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expirySeconds) * time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func VerifyAccessToken(tokenString string, secret string) (*Claims, error) {
	claims, err := verifyToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse == "refresh" {
		return nil, errors.New("refresh token not accepted here")
	}
	return claims, nil
}

func VerifyRefreshToken(tokenString string, secret string) (*Claims, error) {
	claims, err := verifyToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != "refresh" {
		return nil, errors.New("refresh token required")
	}
	return claims, nil
}

func verifyToken(tokenString string, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token required")
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}
