package services

import (
	"context"
	"errors"
	"time"

	"cleanops/config"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the bearer token payload. Subject carries the user id.
type TokenClaims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	secret []byte
	issuer string
	log    logger.Logger
}

func NewAuthService(config config.Config) *AuthService {
	return &AuthService{
		secret: []byte(config.JWTSecret),
		issuer: config.JWTIssuer,
		log:    logger.New("AuthService"),
	}
}

// ValidateToken verifies an HS256 bearer token and returns the actor it names.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (types.Actor, error) {
	log := s.log.TraceFromContext(ctx).Function("ValidateToken")

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		options...,
	)
	if err != nil || !token.Valid {
		log.Info("token rejected", "error", err)
		return types.Actor{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		log.Info("token subject is not a user id", "subject", claims.Subject)
		return types.Actor{}, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		log.Info("token carries an unknown role", "role", claims.Role)
		return types.Actor{}, ErrInvalidToken
	}

	return types.Actor{ID: userID, Role: claims.Role}, nil
}

// IssueToken signs a token for actor valid for ttl.
func (s *AuthService) IssueToken(actor types.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
