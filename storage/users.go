package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/vnkhanh/e-learning-backend/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.conn(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// GetUserByLogin looks a user up by username or email.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("get user by login: %w", err)
	}
	return &user, nil
}

func (s *Store) UserExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count user %d: %w", id, err)
	}
	return n > 0, nil
}

// ListUsers returns users ordered by id, filtered by role when role is non-empty.
func (s *Store) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	q := s.conn(ctx).Order("id ASC")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfile overwrites the editable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, id uint, firstName, lastName, bio, pictureURL string) error {
	err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"first_name":          firstName,
		"last_name":           lastName,
		"bio":                 bio,
		"profile_picture_url": pictureURL,
	}).Error
	if err != nil {
		return fmt.Errorf("update profile %d: %w", id, err)
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
	if err != nil {
		return fmt.Errorf("touch last login %d: %w", id, err)
	}
	return nil
}

// SetUserTimeout overwrites timeout_until. A nil until clears it.
func (s *Store) SetUserTimeout(ctx context.Context, id uint, until *time.Time) (int64, error) {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("timeout_until", until)
	if res.Error != nil {
		return 0, fmt.Errorf("set timeout %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// SetUserBanned writes the ban flag and optionally clears the timeout in
// the same statement.
func (s *Store) SetUserBanned(ctx context.Context, id uint, banned, clearTimeout bool) (int64, error) {
	fields := map[string]any{"is_banned": banned}
	if clearTimeout {
		fields["timeout_until"] = nil
	}
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("set banned %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) SetUserActive(ctx context.Context, id uint, active bool) (int64, error) {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return 0, fmt.Errorf("set active %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// ClearExpiredTimeout resets timeout_until only if it is still expired at
// now. Zero rows affected is not an error.
func (s *Store) ClearExpiredTimeout(ctx context.Context, id uint, now time.Time) (int64, error) {
	res := s.conn(ctx).Model(&models.User{}).
		Where("id = ? AND timeout_until IS NOT NULL AND timeout_until <= ?", id, now).
		Update("timeout_until", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("clear expired timeout %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// ClearAllExpiredTimeouts is the bulk form of ClearExpiredTimeout.
func (s *Store) ClearAllExpiredTimeouts(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).Model(&models.User{}).
		Where("timeout_until IS NOT NULL AND timeout_until <= ?", now).
		Update("timeout_until", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("clear expired timeouts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
