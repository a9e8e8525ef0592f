package user

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/example/eri-mobile-shop/internal/auth"
	"github.com/example/eri-mobile-shop/internal/domain/aggregate"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const AggregateType = "User"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9\-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9\-]*[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s looks like a deliverable address
func IsValidEmail(s string) bool {
	return len(s) <= 254 && emailPattern.MatchString(s)
}

// User represents an admin account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	LastLoginAt  time.Time `json:"last_login_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

func (u *User) GetID() string   { return u.ID }
func (u *User) GetVersion() int { return u.Version }

func (u *User) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventUserCreated:
		var data UserCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.ID = data.UserID
		u.Email = data.Email
		u.PasswordHash = data.PasswordHash
		u.Name = data.Name
		u.Role = data.Role
		u.CreatedAt = data.CreatedAt
		u.UpdatedAt = data.CreatedAt
	case EventUserPasswordChanged:
		var data UserPasswordChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.PasswordHash = data.PasswordHash
		u.UpdatedAt = data.ChangedAt
	case EventUserLoggedIn:
		var data UserLoggedIn
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.LastLoginAt = data.LoggedAt
	}
	u.Version = event.Version
	return nil
}

// Service handles admin account operations
type Service struct {
	eventStore store.EventStoreInterface
}

// NewService creates a new user service
func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) load(ctx context.Context, userID string) (*User, error) {
	u, found, err := aggregate.LoadAggregate(ctx, s.eventStore, userID, func() *User {
		return &User{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Get loads an account from its events
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.load(ctx, userID)
}

// RegisterAdmin creates a new admin account. Email uniqueness is the caller's concern.
func (s *Service) RegisterAdmin(ctx context.Context, email, password, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	now := time.Now()

	stored, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserCreated, UserCreated{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         auth.RoleAdmin,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	return &User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         auth.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      stored.Version,
	}, nil
}

// ChangePassword replaces the password hash
func (s *Service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	u, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	stored, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserPasswordChanged, UserPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    time.Now(),
	})
	if err != nil {
		return err
	}

	u.PasswordHash = passwordHash
	u.Version = stored.Version
	s.snapshot(ctx, u)
	return nil
}

// RecordLogin records a user login event
func (s *Service) RecordLogin(ctx context.Context, userID, ipAddress, userAgent string) error {
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedIn, UserLoggedIn{
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	})
	return err
}

// RecordLogout records a user logout event
func (s *Service) RecordLogout(ctx context.Context, userID string) error {
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedOut, UserLoggedOut{
		UserID:   userID,
		LoggedAt: time.Now(),
	})
	return err
}

func (s *Service) snapshot(ctx context.Context, u *User) {
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, u, AggregateType); err != nil {
		log.Printf("[User] Failed to create snapshot for user %s: %v", u.ID, err)
	}
}
