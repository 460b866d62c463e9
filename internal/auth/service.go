package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Config defines fields used for token issuing.
type Config struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Store is the slice of the user store the auth service depends on.
type Store interface {
	CreateUser(ctx context.Context, user storage.NewUser) (string, error)
	UserByEmail(ctx context.Context, email string) (storage.User, error)
}

// Service handles registration, login and token validation. It is the
// producer of the stable user ids the messaging core references.
type Service struct {
	logger *zap.SugaredLogger
	store  Store
	cfg    Config
}

func NewService(logger *zap.SugaredLogger, store Store, cfg Config) *Service {
	return &Service{
		logger: logger,
		store:  store,
		cfg:    cfg,
	}
}

type claims struct {
	UserID      string `json:"uid"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// RegisterParams carries the fields of a registration request.
type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
	Phone       string
}

// Register hashes the password and creates the user, returning its id.
// Duplicate emails surface as storage.ErrUserExists.
func (s *Service) Register(ctx context.Context, p RegisterParams) (string, error) {
	s.logger.Debugf("Registering user (%s)", p.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return s.store.CreateUser(ctx, storage.NewUser{
		Email:        p.Email,
		DisplayName:  p.DisplayName,
		Phone:        p.Phone,
		PasswordHash: string(hash),
	})
}

// Login verifies credentials and issues a signed token. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, storage.User, error) {
	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotExist) {
			return "", storage.User{}, ErrInvalidCredentials
		}
		return "", storage.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", storage.User{}, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vohada-ish",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", storage.User{}, err
	}

	return signed, u, nil
}

// ValidateToken parses a signed token and returns the user id and display
// name it was issued for.
func (s *Service) ValidateToken(tokenString string) (string, string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}

	return c.UserID, c.DisplayName, nil
}
