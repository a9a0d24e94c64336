package models

import (
	"time"
)

// Enrollment binds one student to one course and owns that student's
// progress and certificate. Deleting it deletes both.
type Enrollment struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	StudentID   uint             `gorm:"not null;uniqueIndex:idx_enrollment_pair" json:"student_id"`
	CourseID    uint             `gorm:"not null;uniqueIndex:idx_enrollment_pair;index" json:"course_id"`
	EnrolledAt  time.Time        `gorm:"not null" json:"enrolled_at"`
	IsCompleted bool             `gorm:"default:false" json:"is_completed"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	FinalGrade  *int             `json:"final_grade,omitempty"`
	Certificate *Certificate     `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE;" json:"certificate,omitempty"`
	Progress    []LessonProgress `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE;" json:"progress,omitempty"`
}

// Certificate is allocated together with the enrollment; the URL is only
// filled in once the course is completed.
type Certificate struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	EnrollmentID      uint      `gorm:"not null;uniqueIndex" json:"enrollment_id"`
	CertificateNumber string    `gorm:"size:64;not null;uniqueIndex" json:"certificate_number"`
	CertificateURL    string    `gorm:"size:500" json:"certificate_url"`
	IssuedAt          time.Time `json:"issued_at"`
}

type LessonProgress struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	EnrollmentID uint       `gorm:"not null;uniqueIndex:idx_progress_pair" json:"enrollment_id"`
	LessonID     uint       `gorm:"not null;uniqueIndex:idx_progress_pair;index" json:"lesson_id"`
	IsCompleted  bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	QuizScore    *int       `json:"quiz_score,omitempty"` // 0-100
}

// CourseProgress is the computed completion of one enrollment.
type CourseProgress struct {
	CourseID         uint    `json:"course_id"`
	EnrollmentID     uint    `json:"enrollment_id"`
	CompletedLessons int64   `json:"completed_lessons"`
	TotalLessons     int64   `json:"total_lessons"`
	Progress         float64 `json:"progress"`
	IsCompleted      bool    `json:"is_completed"`
}

// CourseStats summarises all enrollments of a course.
type CourseStats struct {
	CourseID       uint    `json:"course_id"`
	Enrolled       int64   `json:"enrolled"`
	Completed      int64   `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// EnrolledCourse is one row of a student's course list.
type EnrolledCourse struct {
	Course     Course     `json:"course"`
	Enrollment Enrollment `json:"enrollment"`
	Progress   float64    `json:"progress"`
}

// EnrolledStudent is one row of a course roster.
type EnrolledStudent struct {
	Student    User       `json:"student"`
	Enrollment Enrollment `json:"enrollment"`
	Progress   float64    `json:"progress"`
}
