package models

import (
	"time"
)

type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"` // set once at creation
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:255;index" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	Category     string    `gorm:"size:100" json:"category"`
	Level        string    `gorm:"size:50" json:"level"`
	ThumbnailURL string    `gorm:"size:500" json:"thumbnail_url"`
	IsPublished  bool      `gorm:"default:false" json:"is_published"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Content     string    `gorm:"type:text" json:"content"`
	VideoURL    string    `gorm:"size:500" json:"video_url"`
	DocumentURL string    `gorm:"size:500" json:"document_url"`
	Order       int       `gorm:"column:position;not null;default:0" json:"order"` // explicit position inside the course
	IsQuiz      bool      `gorm:"default:false" json:"is_quiz"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CourseMessage is an announcement from the course instructor to its students.
type CourseMessage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CourseID     uint      `gorm:"not null;index" json:"course_id"`
	InstructorID uint      `gorm:"not null" json:"instructor_id"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	SentAt       time.Time `gorm:"not null" json:"sent_at"`
}
