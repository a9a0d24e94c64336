package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/storage"
)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.UserRole
}

type ProfileInput struct {
	FirstName         string
	LastName          string
	Bio               string
	ProfilePictureURL string
}

// UserService is the user directory behind registration, login and the
// admin user list.
type UserService struct {
	store *storage.Store
	now   func() time.Time
}

func NewUserService(store *storage.Store) *UserService {
	return &UserService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates an active account. Admins are never self-registered.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}
	if !role.Valid() || role == models.RoleAdmin {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  string(hashed),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      role,
		IsActive:  true,
	}

	if _, err := s.store.GetUserByLogin(ctx, user.Username); err == nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.store.GetUserByLogin(ctx, user.Email); err == nil {
		return nil, ErrUsernameTaken
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username or email against its password hash and
// stamps the login time.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	user, err := s.store.GetUserByLogin(ctx, login)
	if err != nil && isNotFound(err) && strings.Contains(login, "@") {
		user, err = s.store.GetUserByLogin(ctx, strings.ToLower(login))
	}
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile overwrites the editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	err := s.store.UpdateProfile(ctx, id,
		strings.TrimSpace(in.FirstName),
		strings.TrimSpace(in.LastName),
		in.Bio,
		in.ProfilePictureURL,
	)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// ListUsers returns all users, or only those with role when it is set.
func (s *UserService) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.store.ListUsers(ctx, role)
}
