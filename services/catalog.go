package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/storage"
)

// Actor is the authenticated caller of a catalog mutation.
type Actor struct {
	ID   uint
	Role models.UserRole
}

// AssetStore uploads public course assets and removes them again.
type AssetStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

type CourseInput struct {
	Title       string
	Description string
	Category    string
	Level       string
	IsPublished bool
}

type LessonInput struct {
	Title       string
	Description string
	Content     string
	VideoURL    string
	DocumentURL string
	Order       int
	IsQuiz      bool
}

type LessonOrder struct {
	LessonID uint `json:"lesson_id"`
	Order    int  `json:"order"`
}

type CatalogService struct {
	store    *storage.Store
	assets   AssetStore
	notifier Notifier
	now      func() time.Time
}

func NewCatalogService(store *storage.Store, assets AssetStore, notifier Notifier) *CatalogService {
	return &CatalogService{
		store:    store,
		assets:   assets,
		notifier: orNop(notifier),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogService) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CatalogService) ListPublished(ctx context.Context) ([]models.Course, error) {
	return s.store.ListPublishedCourses(ctx)
}

func (s *CatalogService) ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	return s.store.ListCoursesByInstructor(ctx, instructorID)
}

// ManagedCourse loads a course the actor may modify: its instructor or an admin.
func (s *CatalogService) ManagedCourse(ctx context.Context, actor Actor, courseID uint) (*models.Course, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && course.InstructorID != actor.ID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

// CreateCourse creates a course owned by the calling instructor.
func (s *CatalogService) CreateCourse(ctx context.Context, actor Actor, in CourseInput) (*models.Course, error) {
	if actor.Role != models.RoleInstructor {
		return nil, ErrInvalidRole
	}
	course := &models.Course{
		InstructorID: actor.ID,
		Title:        strings.TrimSpace(in.Title),
		Slug:         slug.Make(in.Title),
		Description:  in.Description,
		Category:     in.Category,
		Level:        in.Level,
		IsPublished:  in.IsPublished,
	}
	if err := s.store.CreateCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// UpdateCourse overwrites the editable fields. The instructor never changes.
func (s *CatalogService) UpdateCourse(ctx context.Context, actor Actor, courseID uint, in CourseInput) (*models.Course, error) {
	course, err := s.ManagedCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	course.Title = strings.TrimSpace(in.Title)
	course.Slug = slug.Make(in.Title)
	course.Description = in.Description
	course.Category = in.Category
	course.Level = in.Level
	course.IsPublished = in.IsPublished
	if err := s.store.UpdateCourse(ctx, course); err != nil {
		return nil, err
	}
	return s.GetCourse(ctx, courseID)
}

func (s *CatalogService) SetPublished(ctx context.Context, actor Actor, courseID uint, published bool) (*models.Course, error) {
	course, err := s.ManagedCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	course.IsPublished = published
	if err := s.store.UpdateCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes the course with its lessons, quiz content and every
// enrollment in it.
func (s *CatalogService) DeleteCourse(ctx context.Context, actor Actor, courseID uint) error {
	course, err := s.ManagedCourse(ctx, actor, courseID)
	if err != nil {
		return err
	}
	err = s.store.Transaction(ctx, func(tx *storage.Store) error {
		return tx.DeleteCourse(ctx, courseID)
	})
	if err != nil {
		return err
	}
	s.dropAsset(ctx, course.ThumbnailURL)
	return nil
}

// UploadThumbnail stores the image on the asset host and points the course at it.
func (s *CatalogService) UploadThumbnail(ctx context.Context, actor Actor, courseID uint, filename, contentType string, r io.Reader) (*models.Course, error) {
	if s.assets == nil {
		return nil, fmt.Errorf("asset storage is not configured: %w", ErrInvalidState)
	}
	course, err := s.ManagedCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("courses/%d/%s%s", courseID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.assets.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCourseThumbnail(ctx, courseID, url); err != nil {
		return nil, err
	}
	s.dropAsset(ctx, course.ThumbnailURL)
	course.ThumbnailURL = url
	return course, nil
}

func (s *CatalogService) dropAsset(ctx context.Context, url string) {
	if s.assets == nil || url == "" {
		return
	}
	if err := s.assets.Delete(ctx, url); err != nil {
		log.Printf("remove asset %s: %v", url, err)
	}
}

func (s *CatalogService) GetLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	lesson, err := s.store.GetLesson(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return lesson, nil
}

func (s *CatalogService) ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.ListLessons(ctx, courseID)
}

// CreateLesson appends a lesson to the course unless an explicit order is given.
func (s *CatalogService) CreateLesson(ctx context.Context, actor Actor, courseID uint, in LessonInput) (*models.Lesson, error) {
	if _, err := s.ManagedCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	order := in.Order
	if order <= 0 {
		next, err := s.store.NextLessonOrder(ctx, courseID)
		if err != nil {
			return nil, err
		}
		order = next
	}
	lesson := &models.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Content:     in.Content,
		VideoURL:    in.VideoURL,
		DocumentURL: in.DocumentURL,
		Order:       order,
		IsQuiz:      in.IsQuiz,
	}
	if err := s.store.CreateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ManagedLesson loads a lesson whose course the actor may modify.
func (s *CatalogService) ManagedLesson(ctx context.Context, actor Actor, lessonID uint) (*models.Lesson, error) {
	lesson, err := s.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ManagedCourse(ctx, actor, lesson.CourseID); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CatalogService) UpdateLesson(ctx context.Context, actor Actor, lessonID uint, in LessonInput) (*models.Lesson, error) {
	lesson, err := s.ManagedLesson(ctx, actor, lessonID)
	if err != nil {
		return nil, err
	}
	lesson.Title = strings.TrimSpace(in.Title)
	lesson.Description = in.Description
	lesson.Content = in.Content
	lesson.VideoURL = in.VideoURL
	lesson.DocumentURL = in.DocumentURL
	if in.Order > 0 {
		lesson.Order = in.Order
	}
	lesson.IsQuiz = in.IsQuiz
	if err := s.store.UpdateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return s.GetLesson(ctx, lessonID)
}

func (s *CatalogService) DeleteLesson(ctx context.Context, actor Actor, lessonID uint) error {
	if _, err := s.ManagedLesson(ctx, actor, lessonID); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *storage.Store) error {
		return tx.DeleteLesson(ctx, lessonID)
	})
}

// ReorderLessons applies every new position or none of them.
func (s *CatalogService) ReorderLessons(ctx context.Context, actor Actor, courseID uint, orders []LessonOrder) ([]models.Lesson, error) {
	if _, err := s.ManagedCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		for _, o := range orders {
			n, err := tx.SetLessonOrder(ctx, courseID, o.LessonID, o.Order)
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrLessonNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.ListLessons(ctx, courseID)
}

// SendCourseMessage stores an announcement and pushes it to every enrolled
// student. Only the course's own instructor may send one.
func (s *CatalogService) SendCourseMessage(ctx context.Context, actor Actor, courseID uint, text string) (*models.CourseMessage, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != actor.ID {
		return nil, ErrNotCourseOwner
	}
	msg := &models.CourseMessage{
		CourseID:     courseID,
		InstructorID: actor.ID,
		Message:      strings.TrimSpace(text),
		SentAt:       s.now(),
	}
	if err := s.store.CreateCourseMessage(ctx, msg); err != nil {
		return nil, err
	}

	enrollments, err := s.store.ListEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for _, e := range enrollments {
		s.notifier.NotifyUser(e.StudentID, models.Event{Type: models.EventCourseMessage, Data: msg})
	}
	return msg, nil
}

func (s *CatalogService) CourseMessages(ctx context.Context, courseID uint) ([]models.CourseMessage, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.ListCourseMessages(ctx, courseID)
}
