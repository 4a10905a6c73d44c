package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"PONTO-backend/internal/platform/config"
	"PONTO-backend/internal/platform/db"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	MinPasswordLen = 8
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, in RegisterInput) error
	Get(ctx context.Context, id string) (*Account, error)
	Delete(ctx context.Context, id string) error
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *Account
}

type Service struct {
	db      *sql.DB
	dialect db.Dialect
	store   AccountStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	compare func(hash, password []byte) error
}

// dummyHash is compared against when the account is missing or disabled so
// both paths pay for one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("ponto-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("auth: dummy hash: %v", err))
	}
	return h
})

func NewService(conn *sql.DB, dialect db.Dialect, cfg config.AuthConfig) *Service {
	return &Service{
		db:      conn,
		dialect: dialect,
		store:   NewStore(conn, dialect),
		secret:  []byte(cfg.JWTSecret),
		ttl:     cfg.TokenTTL,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	acct, err := s.store.GetByID(ctx, normalizeEmail(email))
	if err != nil {
		return Session{}, err
	}
	if acct == nil || acct.IsDisabled {
		_ = s.compare(dummyHash(), []byte(password))
		return Session{}, ErrInvalidCredentials
	}
	if err := s.compare([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	exp := s.now().Add(s.ttl)
	token, err := IssueToken(s.secret, acct, s.now(), exp)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, Account: acct}, nil
}

// Register creates an account. The existence check and the insert share a transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLen {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, MinPasswordLen)
	}
	role := in.Role
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAdmin {
		return fmt.Errorf("%w: role", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		store := NewStore(tx, s.dialect)
		exists, err := store.GetByID(ctx, email)
		if err != nil {
			return err
		}
		if exists != nil {
			return ErrAlreadyExists
		}
		return store.Create(ctx, &Account{
			ID:           email,
			PasswordHash: string(hash),
			Name:         strings.TrimSpace(in.Name),
			Role:         role,
			CreatedAt:    s.now(),
		})
	})
}

func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	return acct, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, normalizeEmail(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IssueToken signs an HS256 token for acct.
func IssueToken(secret []byte, acct *Account, now, exp time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.ID,
		"role": acct.Role,
		"name": acct.Name,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	})
	return token.SignedString(secret)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
