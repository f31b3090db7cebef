package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrMissingTenant = errors.New("token has no tenant")
)

const (
	defaultAccessTTL = time.Hour
	accessAudience   = "inventory-api"
)

// UserClaims carries the tenant and roles a request acts with.
type UserClaims struct {
	TenantID int32    `json:"tenant_id"`
	UserID   int32    `json:"user_id"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the identity the services expect.
func (c *UserClaims) Actor() domain.Actor {
	return domain.Actor{TenantID: c.TenantID, UserID: c.UserID, Roles: c.Roles}
}

type TokenManager interface {
	GenerateAccessToken(tenantID, userID int32, roles []string) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    defaultAccessTTL,
		now:    time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(tenantID, userID int32, roles []string) (string, error) {
	now := m.now()
	claims := UserClaims{
		TenantID: tenantID,
		UserID:   userID,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	opts := []jwt.ParserOption{jwt.WithAudience(accessAudience), jwt.WithTimeFunc(m.now)}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, _ := strconv.Atoi(claims.Subject)
		claims.UserID = int32(uid)
	}
	if claims.TenantID == 0 {
		return nil, ErrMissingTenant
	}
	return claims, nil
}
