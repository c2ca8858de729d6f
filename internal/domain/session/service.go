package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/exp/slog"
)

const DefaultTTL = 24 * time.Hour

// Claims - данные вызывающего, зашитые в токен.
type Claims struct {
	UserID   string
	TenantID string
	Role     string
}

type Servicer interface {
	Create(ctx context.Context, claims Claims) (string, time.Time, error)
	Validate(ctx context.Context, token string) (*Claims, error)
}

// Service выпускает и проверяет JWT (HS256). Хранилище сессий не нужно:
// токен самодостаточен и живет до истечения exp.
type Service struct {
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration, log *slog.Logger) (*Service, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}, nil
}

func (s *Service) Create(ctx context.Context, c Claims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":  c.UserID,
		"role": c.Role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	if c.TenantID != "" {
		claims["tenant_id"] = c.TenantID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *Service) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		s.log.Debug("token rejected", "error", err)
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	role, _ := mc["role"].(string)
	tenantID, _ := mc["tenant_id"].(string)

	return &Claims{UserID: sub, TenantID: tenantID, Role: role}, nil
}
