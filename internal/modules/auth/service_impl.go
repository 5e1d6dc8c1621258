package auth

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
)

// Claims is the token payload. Role is informational; Authenticate always
// re-reads the role from the user store.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// UserLookup is the slice of the user store authentication reads.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, id string) (*user.User, error)
}

type service struct {
	userRepo UserLookup
	jwtKey   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a new auth service.
func NewService(userRepo UserLookup, secret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{userRepo: userRepo, jwtKey: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperr.InvalidInput("email and password are required")
	}

	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apperr.Unauthorized("invalid credentials")
	}

	now := s.now()
	claims := &Claims{
		Role: string(u.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *service) Authenticate(ctx context.Context, tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected signing method")
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return Principal{}, apperr.Unauthorized("invalid or expired token")
	}

	u, err := s.userRepo.GetUserByID(ctx, claims.Subject)
	if apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindInvalidInput) {
		return Principal{}, apperr.Unauthorized("invalid or expired token")
	}
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: u.ID.String(), Role: u.Role}, nil
}
