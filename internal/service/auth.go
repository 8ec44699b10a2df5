package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-catalog/internal/model"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/utils"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password; the two cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

var registerMessages = map[string]string{
	"Name.required":  "Name is required.",
	"Email.required": "Email is required.",
	"Email.email":    "Email address is invalid.",
	"Password.min":   "Password must be at least 6 characters.",
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"Email.required":    "Email is required.",
	"Password.required": "Password is required.",
}

// Session is what a successful login hands back to the caller.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Accounts registers users and issues access tokens.
type Accounts struct {
	users      UserStore
	secret     string
	ttlMin     int
	bcryptCost int
	logger     *log.Logger
}

// NewAccounts wires an Accounts service.
func NewAccounts(users UserStore, secret string, ttlMin, bcryptCost int, logger *log.Logger) *Accounts {
	if logger == nil {
		logger = log.New("accounts")
	}
	return &Accounts{users: users, secret: secret, ttlMin: ttlMin, bcryptCost: bcryptCost, logger: logger}
}

// Register creates a user with the "user" role.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := model.Check(in, registerMessages); err != nil {
		return nil, err
	}
	return a.create(ctx, in.Name, in.Email, in.Password, model.RoleUser)
}

func (a *Accounts) create(ctx context.Context, name, email, password, role string) (*model.User, error) {
	hash, err := utils.HashPassword(password, a.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &model.ConflictError{Message: "Email is already registered."}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks the password and signs an access token.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := model.Check(in, loginMessages); err != nil {
		return nil, err
	}
	u, err := a.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	tok, err := utils.NewAccessToken(a.secret, u.ID, u.Role, a.ttlMin)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: tok.Token, ExpiresAt: tok.Exp, User: *u}, nil
}

// Me returns the user behind a verified token.
func (a *Accounts) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, &model.NotFoundError{Resource: "user", ID: userID, Message: "User not found."}
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// EnsureAdmin seeds an admin account once. An existing account with the
// same email is left untouched.
func (a *Accounts) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	_, err := a.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("load admin: %w", err)
	}
	if _, err := a.create(ctx, "Administrator", email, password, model.RoleAdmin); err != nil {
		var conflict *model.ConflictError
		if errors.As(err, &conflict) {
			return nil
		}
		return err
	}
	a.logger.Infof("seeded admin account %s", email)
	return nil
}
