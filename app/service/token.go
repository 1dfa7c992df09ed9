package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vibast-solutions/ms-go-todo/app/dto"
	"github.com/vibast-solutions/ms-go-todo/app/entity"
	"github.com/vibast-solutions/ms-go-todo/config"
)

// RoleTaskUser is the role discriminator embedded in every access
// token this service mints. The guard rejects tokens carrying any
// other role even when the signature checks out.
const RoleTaskUser = "taskUser"

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints HS256 access tokens and opaque refresh tokens.
// Refresh tokens carry no claims; their meaning lives in the sessions
// table.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	sessionTTL time.Duration
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		sessionTTL: cfg.SessionTTL,
	}
}

// Issue returns a full token pair for the user. The refresh value must
// be persisted to a session row by the caller before it is handed out.
func (i *TokenIssuer) Issue(user *entity.User, now time.Time) (dto.TokenPair, error) {
	access, err := i.signAccessToken(user, now)
	if err != nil {
		return dto.TokenPair{}, err
	}

	return dto.TokenPair{
		Access:           access,
		Refresh:          uuid.New().String(),
		ExpiredAt:        now.Add(i.accessTTL),
		RefreshableUntil: now.Add(i.sessionTTL),
	}, nil
}

func (i *TokenIssuer) SessionTTL() time.Duration {
	return i.sessionTTL
}

func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (i *TokenIssuer) signAccessToken(user *entity.User, now time.Time) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   RoleTaskUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
