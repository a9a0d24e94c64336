package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, storage.AutoMigrate(db))
	return storage.New(db)
}

var userSeq int

func createUser(t *testing.T, store *storage.Store, role models.UserRole) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{
		Username:  fmt.Sprintf("user%d", userSeq),
		Email:     fmt.Sprintf("user%d@example.com", userSeq),
		Password:  "x",
		FirstName: "Test",
		LastName:  fmt.Sprint(userSeq),
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func createCourse(t *testing.T, store *storage.Store, instructorID uint) *models.Course {
	t.Helper()
	c := &models.Course{InstructorID: instructorID, Title: "Go basics", Slug: "go-basics", IsPublished: true}
	require.NoError(t, store.CreateCourse(context.Background(), c))
	return c
}

func createLesson(t *testing.T, store *storage.Store, courseID uint, order int, quiz bool) *models.Lesson {
	t.Helper()
	l := &models.Lesson{CourseID: courseID, Title: fmt.Sprintf("Lesson %d", order), Order: order, IsQuiz: quiz}
	require.NoError(t, store.CreateLesson(context.Background(), l))
	return l
}

// createQuestion adds a question whose first answer is the correct one.
func createQuestion(t *testing.T, store *storage.Store, lessonID uint) *models.QuizQuestion {
	t.Helper()
	q := &models.QuizQuestion{
		LessonID:     lessonID,
		QuestionText: "Which keyword starts a goroutine?",
		Points:       1,
		Answers: []models.QuizAnswer{
			{AnswerText: "go", IsCorrect: true},
			{AnswerText: "async"},
			{AnswerText: "spawn"},
		},
	}
	require.NoError(t, store.CreateQuestion(context.Background(), q))
	return q
}

type notification struct {
	UserID uint
	Event  models.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) NotifyUser(userID uint, event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{UserID: userID, Event: event})
}

func (n *recordingNotifier) of(eventType string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, e := range n.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeAssets struct {
	uploaded []string
	deleted  []string
}

func (f *fakeAssets) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, objectPath)
	return "https://cdn.example.com/" + objectPath, nil
}

func (f *fakeAssets) Delete(_ context.Context, publicURL string) error {
	f.deleted = append(f.deleted, publicURL)
	return nil
}
