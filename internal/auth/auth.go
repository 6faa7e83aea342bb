package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtIssuer   = "gymslot-api"
	jwtAudience = "gymslot-members"

	AccessTokenTTL = 15 * time.Minute

	RoleAdmin  = "admin"
	RoleMember = "member"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidToken   = errors.New("invalid token")
	ErrEmptyJWTSecret = errors.New("jwt secret cannot be empty")
	ErrEmptySubject   = errors.New("token subject cannot be empty")
)

// JWTClaims carries the caller identity issued by the membership system.
// MembershipLevel uses the ordinal of the gym membership tier.
type JWTClaims struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	MembershipLevel int    `json:"membership_level"`
	TokenType       string `json:"token_type"`
	jwt.RegisteredClaims
}

type Identity struct {
	UserID          string
	Email           string
	Role            string
	MembershipLevel int
}

func GenerateAccessToken(id Identity, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}
	if id.UserID == "" {
		return "", ErrEmptySubject
	}

	now := time.Now()

	claims := &JWTClaims{
		UserID:          id.UserID,
		Email:           id.Email,
		Role:            id.Role,
		MembershipLevel: id.MembershipLevel,
		TokenType:       "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   id.UserID,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
