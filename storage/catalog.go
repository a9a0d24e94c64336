package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/models"
)

func (s *Store) CreateCourse(ctx context.Context, course *models.Course) error {
	if err := s.conn(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

func (s *Store) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := s.conn(ctx).First(&course, id).Error; err != nil {
		return nil, fmt.Errorf("get course %d: %w", id, err)
	}
	return &course, nil
}

// UpdateCourse overwrites the editable course fields. instructor_id is
// never part of the update.
func (s *Store) UpdateCourse(ctx context.Context, course *models.Course) error {
	err := s.conn(ctx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]any{
		"title":         course.Title,
		"slug":          course.Slug,
		"description":   course.Description,
		"category":      course.Category,
		"level":         course.Level,
		"thumbnail_url": course.ThumbnailURL,
		"is_published":  course.IsPublished,
	}).Error
	if err != nil {
		return fmt.Errorf("update course %d: %w", course.ID, err)
	}
	return nil
}

func (s *Store) SetCourseThumbnail(ctx context.Context, id uint, url string) error {
	err := s.conn(ctx).Model(&models.Course{}).Where("id = ?", id).Update("thumbnail_url", url).Error
	if err != nil {
		return fmt.Errorf("set thumbnail %d: %w", id, err)
	}
	return nil
}

func (s *Store) ListPublishedCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.conn(ctx).Where("is_published = ?", true).Order("created_at DESC, id DESC").Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	return courses, nil
}

func (s *Store) ListCoursesByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	var courses []models.Course
	err := s.conn(ctx).Where("instructor_id = ?", instructorID).Order("id ASC").Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("list courses of instructor %d: %w", instructorID, err)
	}
	return courses, nil
}

// DeleteCourse removes a course with its lessons, quiz content and
// enrollments. Call it inside Transaction.
func (s *Store) DeleteCourse(ctx context.Context, id uint) error {
	db := s.conn(ctx)
	lessonIDs := db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", id)
	if err := s.deleteLessonsIn(db, lessonIDs); err != nil {
		return fmt.Errorf("delete course %d: %w", id, err)
	}

	enrollmentIDs := db.Model(&models.Enrollment{}).Select("id").Where("course_id = ?", id)
	if err := db.Where("enrollment_id IN (?)", enrollmentIDs).Delete(&models.LessonProgress{}).Error; err != nil {
		return fmt.Errorf("delete course %d progress: %w", id, err)
	}
	if err := db.Where("enrollment_id IN (?)", enrollmentIDs).Delete(&models.Certificate{}).Error; err != nil {
		return fmt.Errorf("delete course %d certificates: %w", id, err)
	}
	if err := db.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
		return fmt.Errorf("delete course %d enrollments: %w", id, err)
	}
	if err := db.Where("course_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
		return fmt.Errorf("delete course %d lessons: %w", id, err)
	}
	if err := db.Where("course_id = ?", id).Delete(&models.CourseMessage{}).Error; err != nil {
		return fmt.Errorf("delete course %d messages: %w", id, err)
	}
	res := db.Delete(&models.Course{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete course %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete course %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// deleteLessonsIn removes answers, questions and progress hanging off the
// lessons selected by lessonIDs. The lessons themselves are left to the caller.
func (s *Store) deleteLessonsIn(db *gorm.DB, lessonIDs *gorm.DB) error {
	questionIDs := db.Model(&models.QuizQuestion{}).Select("id").Where("lesson_id IN (?)", lessonIDs)
	if err := db.Where("question_id IN (?)", questionIDs).Delete(&models.QuizAnswer{}).Error; err != nil {
		return err
	}
	if err := db.Where("lesson_id IN (?)", lessonIDs).Delete(&models.QuizQuestion{}).Error; err != nil {
		return err
	}
	return db.Where("lesson_id IN (?)", lessonIDs).Delete(&models.LessonProgress{}).Error
}

func (s *Store) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	if err := s.conn(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

func (s *Store) GetLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.conn(ctx).First(&lesson, id).Error; err != nil {
		return nil, fmt.Errorf("get lesson %d: %w", id, err)
	}
	return &lesson, nil
}

// UpdateLesson overwrites the lesson content fields. course_id stays put.
func (s *Store) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	err := s.conn(ctx).Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(map[string]any{
		"title":        lesson.Title,
		"description":  lesson.Description,
		"content":      lesson.Content,
		"video_url":    lesson.VideoURL,
		"document_url": lesson.DocumentURL,
		"position":     lesson.Order,
		"is_quiz":      lesson.IsQuiz,
	}).Error
	if err != nil {
		return fmt.Errorf("update lesson %d: %w", lesson.ID, err)
	}
	return nil
}

// DeleteLesson removes a lesson together with its questions, answers and
// progress rows. Call it inside Transaction.
func (s *Store) DeleteLesson(ctx context.Context, id uint) error {
	db := s.conn(ctx)
	lessonIDs := db.Model(&models.Lesson{}).Select("id").Where("id = ?", id)
	if err := s.deleteLessonsIn(db, lessonIDs); err != nil {
		return fmt.Errorf("delete lesson %d: %w", id, err)
	}
	res := db.Delete(&models.Lesson{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete lesson %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete lesson %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// ListLessons returns the lessons of a course by their explicit order.
func (s *Store) ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.conn(ctx).Where("course_id = ?", courseID).Order("position ASC, id ASC").Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("list lessons of course %d: %w", courseID, err)
	}
	return lessons, nil
}

func (s *Store) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count lessons of course %d: %w", courseID, err)
	}
	return n, nil
}

// NextLessonOrder returns one past the highest order used in the course.
func (s *Store) NextLessonOrder(ctx context.Context, courseID uint) (int, error) {
	var highest int64
	err := s.conn(ctx).Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&highest).Error
	if err != nil {
		return 0, fmt.Errorf("max lesson order of course %d: %w", courseID, err)
	}
	return int(highest) + 1, nil
}

// SetLessonOrder moves one lesson. The course filter keeps a reorder
// request from touching another course's lesson.
func (s *Store) SetLessonOrder(ctx context.Context, courseID, lessonID uint, order int) (int64, error) {
	res := s.conn(ctx).Model(&models.Lesson{}).
		Where("id = ? AND course_id = ?", lessonID, courseID).
		Update("position", order)
	if res.Error != nil {
		return 0, fmt.Errorf("set order of lesson %d: %w", lessonID, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CreateCourseMessage(ctx context.Context, m *models.CourseMessage) error {
	if err := s.conn(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create course message: %w", err)
	}
	return nil
}

// ListCourseMessages returns the course announcements, newest first.
func (s *Store) ListCourseMessages(ctx context.Context, courseID uint) ([]models.CourseMessage, error) {
	var list []models.CourseMessage
	err := s.conn(ctx).Where("course_id = ?", courseID).Order("sent_at DESC, id DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list messages of course %d: %w", courseID, err)
	}
	return list, nil
}
