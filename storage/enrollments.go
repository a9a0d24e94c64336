package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/vnkhanh/e-learning-backend/models"
)

// CreateEnrollment inserts the enrollment and its certificate stub.
func (s *Store) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	if err := s.conn(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func (s *Store) GetEnrollment(ctx context.Context, id uint) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := s.conn(ctx).Preload("Certificate").First(&e, id).Error; err != nil {
		return nil, fmt.Errorf("get enrollment %d: %w", id, err)
	}
	return &e, nil
}

func (s *Store) FindEnrollment(ctx context.Context, courseID, studentID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.conn(ctx).
		Preload("Certificate").
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&e).Error
	if err != nil {
		return nil, fmt.Errorf("find enrollment of student %d in course %d: %w", studentID, courseID, err)
	}
	return &e, nil
}

func (s *Store) EnrollmentExists(ctx context.Context, courseID, studentID uint) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count enrollment: %w", err)
	}
	return n > 0, nil
}

// DeleteEnrollment removes the enrollment, its progress and its
// certificate. Call it inside Transaction.
func (s *Store) DeleteEnrollment(ctx context.Context, id uint) error {
	db := s.conn(ctx)
	if err := db.Where("enrollment_id = ?", id).Delete(&models.LessonProgress{}).Error; err != nil {
		return fmt.Errorf("delete progress of enrollment %d: %w", id, err)
	}
	if err := db.Where("enrollment_id = ?", id).Delete(&models.Certificate{}).Error; err != nil {
		return fmt.Errorf("delete certificate of enrollment %d: %w", id, err)
	}
	if err := db.Delete(&models.Enrollment{}, id).Error; err != nil {
		return fmt.Errorf("delete enrollment %d: %w", id, err)
	}
	return nil
}

func (s *Store) ListEnrollmentsByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var list []models.Enrollment
	err := s.conn(ctx).Preload("Certificate").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list enrollments of student %d: %w", studentID, err)
	}
	return list, nil
}

func (s *Store) ListEnrollmentsByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error) {
	var list []models.Enrollment
	err := s.conn(ctx).Preload("Certificate").
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list enrollments of course %d: %w", courseID, err)
	}
	return list, nil
}

// CountEnrollments returns how many students are enrolled in the course and
// how many of them completed it.
func (s *Store) CountEnrollments(ctx context.Context, courseID uint) (total, completed int64, err error) {
	db := s.conn(ctx)
	if err = db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count enrollments of course %d: %w", courseID, err)
	}
	err = db.Model(&models.Enrollment{}).
		Where("course_id = ? AND is_completed = ?", courseID, true).
		Count(&completed).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count completions of course %d: %w", courseID, err)
	}
	return total, completed, nil
}

// UpsertLessonProgress inserts the row for (enrollment, lesson) or
// overwrites the completion fields of the existing one. quiz_score is only
// overwritten when withScore is set.
func (s *Store) UpsertLessonProgress(ctx context.Context, p *models.LessonProgress, withScore bool) error {
	columns := []string{"is_completed", "completed_at"}
	if withScore {
		columns = append(columns, "quiz_score")
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert progress of lesson %d: %w", p.LessonID, err)
	}
	return nil
}

func (s *Store) GetLessonProgress(ctx context.Context, enrollmentID, lessonID uint) (*models.LessonProgress, error) {
	var p models.LessonProgress
	err := s.conn(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&p).Error
	if err != nil {
		return nil, fmt.Errorf("get progress of lesson %d: %w", lessonID, err)
	}
	return &p, nil
}

func (s *Store) ListLessonProgress(ctx context.Context, enrollmentID uint) ([]models.LessonProgress, error) {
	var list []models.LessonProgress
	err := s.conn(ctx).Where("enrollment_id = ?", enrollmentID).Order("lesson_id ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list progress of enrollment %d: %w", enrollmentID, err)
	}
	return list, nil
}

func (s *Store) CountLessonProgress(ctx context.Context, enrollmentID uint) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.LessonProgress{}).Where("enrollment_id = ?", enrollmentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count progress of enrollment %d: %w", enrollmentID, err)
	}
	return n, nil
}

// CountCompletedLessons counts completed progress rows of the enrollment
// whose lesson belongs to courseID.
func (s *Store) CountCompletedLessons(ctx context.Context, enrollmentID, courseID uint) (int64, error) {
	db := s.conn(ctx)
	var n int64
	err := db.Model(&models.LessonProgress{}).
		Where("enrollment_id = ? AND is_completed = ?", enrollmentID, true).
		Where("lesson_id IN (?)", db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", courseID)).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count completed lessons of enrollment %d: %w", enrollmentID, err)
	}
	return n, nil
}

// QuizScores returns every recorded quiz score of the enrollment.
func (s *Store) QuizScores(ctx context.Context, enrollmentID uint) ([]int, error) {
	var scores []int
	err := s.conn(ctx).Model(&models.LessonProgress{}).
		Where("enrollment_id = ? AND quiz_score IS NOT NULL", enrollmentID).
		Pluck("quiz_score", &scores).Error
	if err != nil {
		return nil, fmt.Errorf("quiz scores of enrollment %d: %w", enrollmentID, err)
	}
	return scores, nil
}

// CompleteEnrollment flips is_completed once. Zero rows affected means the
// enrollment was already complete.
func (s *Store) CompleteEnrollment(ctx context.Context, id uint, at time.Time, finalGrade *int) (int64, error) {
	res := s.conn(ctx).Model(&models.Enrollment{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]any{
			"is_completed": true,
			"completed_at": at,
			"final_grade":  finalGrade,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("complete enrollment %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) IssueCertificate(ctx context.Context, enrollmentID uint, url string, at time.Time) error {
	err := s.conn(ctx).Model(&models.Certificate{}).
		Where("enrollment_id = ?", enrollmentID).
		Updates(map[string]any{"certificate_url": url, "issued_at": at}).Error
	if err != nil {
		return fmt.Errorf("issue certificate of enrollment %d: %w", enrollmentID, err)
	}
	return nil
}
