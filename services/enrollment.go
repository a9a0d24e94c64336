package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/storage"
)

type EnrollmentService struct {
	store              *storage.Store
	notifier           Notifier
	certificateBaseURL string
	now                func() time.Time
}

func NewEnrollmentService(store *storage.Store, notifier Notifier, certificateBaseURL string) *EnrollmentService {
	return &EnrollmentService{
		store:              store,
		notifier:           orNop(notifier),
		certificateBaseURL: strings.TrimRight(certificateBaseURL, "/"),
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Enroll creates the enrollment of a student in a course together with a
// certificate stub carrying a fresh certificate number.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID, studentID uint) (*models.Enrollment, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	student, err := s.store.GetUser(ctx, studentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, ErrInvalidRole
	}

	exists, err := s.store.EnrollmentExists(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	now := s.now()
	enrollment := &models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: now,
		Certificate: &models.Certificate{
			CertificateNumber: uuid.NewString(),
			IssuedAt:          now,
		},
	}
	if err := s.store.CreateEnrollment(ctx, enrollment); err != nil {
		// a concurrent enroll of the same pair lost the race on the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

// Unenroll deletes the enrollment with all of its progress and its certificate.
func (s *EnrollmentService) Unenroll(ctx context.Context, courseID, studentID uint) error {
	enrollment, err := s.store.FindEnrollment(ctx, courseID, studentID)
	if err != nil {
		if isNotFound(err) {
			return ErrNotEnrolled
		}
		return err
	}
	return s.store.Transaction(ctx, func(tx *storage.Store) error {
		return tx.DeleteEnrollment(ctx, enrollment.ID)
	})
}

func (s *EnrollmentService) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	return s.store.EnrollmentExists(ctx, courseID, studentID)
}

func (s *EnrollmentService) GetEnrollment(ctx context.Context, enrollmentID uint) (*models.Enrollment, error) {
	enrollment, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return enrollment, nil
}

// FindEnrollment returns the enrollment of a student in a course.
func (s *EnrollmentService) FindEnrollment(ctx context.Context, courseID, studentID uint) (*models.Enrollment, error) {
	enrollment, err := s.store.FindEnrollment(ctx, courseID, studentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

// MarkLessonComplete records the lesson as completed for the enrollment.
// Repeating the call only refreshes completedAt; a recorded quiz score is kept.
// The lesson is not checked against the enrollment's course.
func (s *EnrollmentService) MarkLessonComplete(ctx context.Context, lessonID, enrollmentID uint) (*models.LessonProgress, error) {
	if _, err := s.store.GetLesson(ctx, lessonID); err != nil {
		if isNotFound(err) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return s.recordProgress(ctx, lessonID, enrollmentID, nil)
}

// recordProgress upserts the progress row and completes the enrollment when
// that write brings the course to 100%. A nil score leaves quiz_score alone.
func (s *EnrollmentService) recordProgress(ctx context.Context, lessonID, enrollmentID uint, score *int) (*models.LessonProgress, error) {
	var (
		progress  *models.LessonProgress
		completed *models.Enrollment
	)
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		enrollment, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			if isNotFound(err) {
				return ErrEnrollmentNotFound
			}
			return err
		}

		now := s.now()
		row := &models.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
			IsCompleted:  true,
			CompletedAt:  &now,
			QuizScore:    score,
		}
		if err := tx.UpsertLessonProgress(ctx, row, score != nil); err != nil {
			return err
		}
		if progress, err = tx.GetLessonProgress(ctx, enrollmentID, lessonID); err != nil {
			return err
		}

		completed, err = s.completeIfFinished(ctx, tx, enrollment)
		return err
	})
	if err != nil {
		return nil, err
	}

	if completed != nil {
		log.Printf("enrollment %d completed course %d", completed.ID, completed.CourseID)
		s.notifier.NotifyUser(completed.StudentID, models.Event{
			Type: models.EventEnrollmentCompleted,
			Data: completed,
		})
	}
	return progress, nil
}

// completeIfFinished marks the enrollment completed, grades it and issues
// the certificate once every lesson of the course is done. It returns the
// updated enrollment only when this call did the transition.
func (s *EnrollmentService) completeIfFinished(ctx context.Context, tx *storage.Store, enrollment *models.Enrollment) (*models.Enrollment, error) {
	if enrollment.IsCompleted {
		return nil, nil
	}
	pct, err := courseProgress(ctx, tx, enrollment.CourseID, enrollment.ID)
	if err != nil {
		return nil, err
	}
	if pct < 100 {
		return nil, nil
	}

	scores, err := tx.QuizScores(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	grade := averageScore(scores)

	now := s.now()
	n, err := tx.CompleteEnrollment(ctx, enrollment.ID, now, grade)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if enrollment.Certificate != nil {
		url := s.certificateURL(enrollment.Certificate.CertificateNumber)
		if err := tx.IssueCertificate(ctx, enrollment.ID, url, now); err != nil {
			return nil, err
		}
	}
	return tx.GetEnrollment(ctx, enrollment.ID)
}

func (s *EnrollmentService) certificateURL(number string) string {
	if s.certificateBaseURL == "" {
		return number
	}
	return s.certificateBaseURL + "/" + number
}

// averageScore returns the truncated mean, or nil when nothing was scored.
func averageScore(scores []int) *int {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	avg := sum / len(scores)
	return &avg
}

// CourseProgress returns the completed share of the course's lessons for
// the enrollment as a percentage. A course without lessons is at 0.
func (s *EnrollmentService) CourseProgress(ctx context.Context, courseID, enrollmentID uint) (float64, error) {
	return courseProgress(ctx, s.store, courseID, enrollmentID)
}

func courseProgress(ctx context.Context, store *storage.Store, courseID, enrollmentID uint) (float64, error) {
	total, err := store.CountLessons(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	completed, err := store.CountCompletedLessons(ctx, enrollmentID, courseID)
	if err != nil {
		return 0, err
	}
	return float64(completed) / float64(total) * 100, nil
}

// Progress returns the detailed progress of an enrollment in its own course.
func (s *EnrollmentService) Progress(ctx context.Context, enrollmentID uint) (*models.CourseProgress, error) {
	enrollment, err := s.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountLessons(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.store.CountCompletedLessons(ctx, enrollment.ID, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	out := &models.CourseProgress{
		CourseID:         enrollment.CourseID,
		EnrollmentID:     enrollment.ID,
		CompletedLessons: completed,
		TotalLessons:     total,
		IsCompleted:      enrollment.IsCompleted,
	}
	if total > 0 {
		out.Progress = float64(completed) / float64(total) * 100
	}
	return out, nil
}

func (s *EnrollmentService) GetLessonProgress(ctx context.Context, enrollmentID, lessonID uint) (*models.LessonProgress, error) {
	p, err := s.store.GetLessonProgress(ctx, enrollmentID, lessonID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("lesson %d has no progress: %w", lessonID, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *EnrollmentService) ListLessonProgress(ctx context.Context, enrollmentID uint) ([]models.LessonProgress, error) {
	return s.store.ListLessonProgress(ctx, enrollmentID)
}

// EnrolledCourses lists the courses a student is enrolled in, newest first.
func (s *EnrollmentService) EnrolledCourses(ctx context.Context, studentID uint) ([]models.EnrolledCourse, error) {
	enrollments, err := s.store.ListEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EnrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		course, err := s.store.GetCourse(ctx, e.CourseID)
		if err != nil {
			return nil, err
		}
		pct, err := s.CourseProgress(ctx, e.CourseID, e.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.EnrolledCourse{Course: *course, Enrollment: e, Progress: pct})
	}
	return out, nil
}

// EnrolledStudents is the roster of a course in enrollment order.
func (s *EnrollmentService) EnrolledStudents(ctx context.Context, courseID uint) ([]models.EnrolledStudent, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	enrollments, err := s.store.ListEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EnrolledStudent, 0, len(enrollments))
	for _, e := range enrollments {
		student, err := s.store.GetUser(ctx, e.StudentID)
		if err != nil {
			return nil, err
		}
		pct, err := s.CourseProgress(ctx, courseID, e.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.EnrolledStudent{Student: *student, Enrollment: e, Progress: pct})
	}
	return out, nil
}

func (s *EnrollmentService) CourseStats(ctx context.Context, courseID uint) (*models.CourseStats, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	total, completed, err := s.store.CountEnrollments(ctx, courseID)
	if err != nil {
		return nil, err
	}
	stats := &models.CourseStats{CourseID: courseID, Enrolled: total, Completed: completed}
	if total > 0 {
		stats.CompletionRate = float64(completed) / float64(total) * 100
	}
	return stats, nil
}
