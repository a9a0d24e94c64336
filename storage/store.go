package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/models"
)

// Store wraps a gorm handle. Inside Transaction the same methods run
// against the open transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and migrations.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn against a Store bound to a single transaction.
// Returning an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// AutoMigrate creates or updates every table the platform owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Lesson{},
		&models.QuizQuestion{},
		&models.QuizAnswer{},
		&models.Enrollment{},
		&models.Certificate{},
		&models.LessonProgress{},
		&models.UserReport{},
		&models.CourseMessage{},
	)
}
