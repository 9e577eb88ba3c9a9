package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"melodex/internal/logging"
	"melodex/internal/services"
)

// Service implements registration, login, and token verification on top of
// the account store.
type Service struct {
	store  *Store
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewService wires the account store to the token settings. The secret is
// required; without one no token could ever be verified.
func NewService(store *Store, secret string, ttl time.Duration, logger *slog.Logger) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "identity", "new", "auth.token_secret is not set", nil)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "identity"),
	}, nil
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateRegistration(username, email, password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, email, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("account created", logging.String("username", user.Username))
	return user, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", services.Wrap(services.ErrClientInput, "identity", "login", "username and password are required", nil)
	}

	user, hash, err := s.store.credentialsByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", services.Wrap(services.ErrUnauthorized, "identity", "login", "invalid credentials", nil)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Lookup returns the account behind a previously verified token subject.
func (s *Service) Lookup(ctx context.Context, userID int64) (*User, error) {
	return s.store.GetByID(ctx, userID)
}

// VerifyToken validates a bearer token and returns the account id it was
// issued to.
func (s *Service) VerifyToken(token string) (int64, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, services.Wrap(services.ErrUnauthorized, "identity", "verify", "invalid or expired token", err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return 0, services.Wrap(services.ErrUnauthorized, "identity", "verify", "token missing subject", err)
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrUnauthorized, "identity", "verify", "malformed token subject", err)
	}
	return userID, nil
}

func (s *Service) issueToken(user *User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10),
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func validateRegistration(username, email, password string) error {
	var problems []string
	if len(username) < 3 {
		problems = append(problems, "username must be at least 3 characters")
	}
	if !strings.Contains(email, "@") {
		problems = append(problems, "email is invalid")
	}
	if len(password) < 6 {
		problems = append(problems, "password must be at least 6 characters")
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrClientInput, "identity", "register", strings.Join(problems, "; "), nil)
	}
	return nil
}
