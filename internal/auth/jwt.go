package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTAuthenticator struct {
	secret string
	aud    string
	iss    string
}

func NewJWTAuthenticator(secret, aud, iss string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: secret, aud: aud, iss: iss}
}

// GenerateToken signs an HS256 access token for id.
func (a *JWTAuthenticator) GenerateToken(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  id.UserID,
		"role": string(id.Role),
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"iss":  a.iss,
		"aud":  a.aud,
	}
	if id.Email != "" {
		claims["email"] = id.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secret))
}

// ValidateAccessToken validates the access token
func (a *JWTAuthenticator) ValidateAccessToken(token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.iss),
		jwt.WithAudience(a.aud),
	)
}

// Identify validates token and reads the identity out of its claims. A
// missing role means a regular user.
func (a *JWTAuthenticator) Identify(token string) (Identity, error) {
	jwtToken, err := a.ValidateAccessToken(token)
	if err != nil {
		return Identity{}, err
	}
	claims, ok := jwtToken.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidClaims
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return Identity{}, fmt.Errorf("%w: sub", ErrInvalidClaims)
	}
	userID, err := strconv.ParseInt(fmt.Sprintf("%.f", sub), 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, fmt.Errorf("%w: sub", ErrInvalidClaims)
	}

	id := Identity{UserID: userID, Role: RoleUser}
	if role, _ := claims["role"].(string); role == string(RoleAdmin) {
		id.Role = RoleAdmin
	}
	id.Email, _ = claims["email"].(string)
	return id, nil
}
