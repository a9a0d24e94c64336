package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/storage"
	"github.com/vnkhanh/e-learning-backend/utils"
	"github.com/vnkhanh/e-learning-backend/ws"
)

type testApp struct {
	router *gin.Engine
	store  *storage.Store
	tokens *utils.TokenIssuer
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"status_code"`
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	store := storage.New(db)
	hub := ws.NewHub()
	tokens := utils.NewTokenIssuer("routes-secret", time.Hour)
	enrollments := services.NewEnrollmentService(store, hub, "https://certs.example.com")

	r := gin.New()
	SetupRouter(r, Deps{
		DB:              db,
		Hub:             hub,
		Tokens:          tokens,
		Users:           services.NewUserService(store),
		Catalog:         services.NewCatalogService(store, nil, hub),
		Enrollments:     enrollments,
		Quiz:            services.NewQuizService(store, enrollments, nil, nil),
		Moderation:      services.NewModerationService(store, hub),
		Recommendations: services.NewRecommendationClient("", time.Second),
	})
	return &testApp{router: r, store: store, tokens: tokens}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// register signs a user up through the API and returns its id and token.
func (a *testApp) register(t *testing.T, username string, role models.UserRole) (uint, string) {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password1",
		"role":     string(role),
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"login": username, "password": "password1"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	return login.User.ID, login.Token
}

func (a *testApp) admin(t *testing.T) (uint, string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: "admin", Email: "admin@example.com", Password: string(hashed), Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, a.store.CreateUser(context.Background(), user))
	token, err := a.tokens.GenerateToken(user.ID, string(user.Role))
	require.NoError(t, err)
	return user.ID, token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// publishedCourse creates a published course with a reading lesson and a
// one question quiz lesson.
func (a *testApp) publishedCourse(t *testing.T, token string) (models.Course, models.Lesson, models.Lesson, models.QuizQuestion) {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/courses", token, gin.H{"title": "Go in Practice", "is_published": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	course := decode[models.Course](t, env)

	path := fmt.Sprintf("/api/courses/%d/lessons", course.ID)
	code, env = a.do(t, http.MethodPost, path, token, gin.H{"title": "Reading"})
	require.Equal(t, http.StatusOK, code, env.Message)
	reading := decode[models.Lesson](t, env)

	code, env = a.do(t, http.MethodPost, path, token, gin.H{"title": "Quiz", "is_quiz": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	quiz := decode[models.Lesson](t, env)

	code, env = a.do(t, http.MethodPost, fmt.Sprintf("/api/lessons/%d/questions", quiz.ID), token, gin.H{
		"question_text": "Zero value of an int?",
		"points":        1,
		"answers": []gin.H{
			{"answer_text": "0", "is_correct": true},
			{"answer_text": "nil"},
		},
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	question := decode[models.QuizQuestion](t, env)
	return course, reading, quiz, question
}

func TestHealthAndPing(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db":"ok"`)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStudentCompletesCourse(t *testing.T) {
	app := newTestApp(t)
	_, instructor := app.register(t, "instructor", models.RoleInstructor)
	studentID, student := app.register(t, "student", models.RoleStudent)
	course, reading, quiz, question := app.publishedCourse(t, instructor)

	code, env := app.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), student, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	enrollment := decode[models.Enrollment](t, env)
	assert.Equal(t, studentID, enrollment.StudentID)

	code, env = app.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), student, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Equal(t, []string{services.ErrAlreadyEnrolled.Error()}, env.Errors)

	// students see the questions without correctness
	code, env = app.do(t, http.MethodGet, fmt.Sprintf("/api/lessons/%d/questions", quiz.ID), student, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.NotContains(t, string(env.Data), "is_correct")

	code, env = app.do(t, http.MethodPost, fmt.Sprintf("/api/lessons/%d/complete", reading.ID), student, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	completed := decode[struct {
		CourseProgress float64 `json:"course_progress"`
	}](t, env)
	assert.Equal(t, 50.0, completed.CourseProgress)

	code, env = app.do(t, http.MethodPost, fmt.Sprintf("/api/lessons/%d/quiz/submit", quiz.ID), student, gin.H{
		"answers": map[string]uint{fmt.Sprint(question.ID): question.Answers[0].ID},
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, 100, decode[map[string]int](t, env)["score"])

	code, env = app.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/progress", course.ID), student, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	progress := decode[struct {
		Progress   models.CourseProgress `json:"progress"`
		Enrollment models.Enrollment     `json:"enrollment"`
	}](t, env)
	assert.Equal(t, 100.0, progress.Progress.Progress)
	assert.True(t, progress.Enrollment.IsCompleted)
	require.NotNil(t, progress.Enrollment.FinalGrade)
	assert.Equal(t, 100, *progress.Enrollment.FinalGrade)
	require.NotNil(t, progress.Enrollment.Certificate)
	assert.NotEmpty(t, progress.Enrollment.Certificate.CertificateURL)

	code, env = app.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/stats", course.ID), instructor, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	stats := decode[models.CourseStats](t, env)
	assert.EqualValues(t, 1, stats.Completed)

	code, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/stats", course.ID), student, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestProgressIsRecordedOnlyAgainstOwnCourse(t *testing.T) {
	app := newTestApp(t)
	_, instructor := app.register(t, "instructor", models.RoleInstructor)
	_, student := app.register(t, "student", models.RoleStudent)
	enrolledCourse, _, _, _ := app.publishedCourse(t, instructor)
	_, otherLesson, _, _ := app.publishedCourse(t, instructor)

	code, env := app.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", enrolledCourse.ID), student, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = app.do(t, http.MethodPost, fmt.Sprintf("/api/lessons/%d/complete", otherLesson.ID), student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodPost, "/api/lessons/9999/complete", student, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInstructorsCannotTouchOtherCourses(t *testing.T) {
	app := newTestApp(t)
	_, owner := app.register(t, "owner", models.RoleInstructor)
	_, other := app.register(t, "other", models.RoleInstructor)
	_, student := app.register(t, "student", models.RoleStudent)
	course, reading, _, question := app.publishedCourse(t, owner)

	code, _ := app.do(t, http.MethodPut, fmt.Sprintf("/api/courses/%d", course.ID), other, gin.H{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/lessons/%d", reading.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodPut, fmt.Sprintf("/api/questions/%d", question.ID), other, gin.H{"question_text": "changed"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodPost, "/api/courses", student, gin.H{"title": "Student course"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/lessons/%d", reading.ID), student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestUnpublishedCourseIsHidden(t *testing.T) {
	app := newTestApp(t)
	_, owner := app.register(t, "owner", models.RoleInstructor)
	_, student := app.register(t, "student", models.RoleStudent)

	code, env := app.do(t, http.MethodPost, "/api/courses", owner, gin.H{"title": "Draft"})
	require.Equal(t, http.StatusOK, code, env.Message)
	draft := decode[models.Course](t, env)

	code, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", draft.ID), student, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", draft.ID), owner, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = app.do(t, http.MethodGet, "/api/courses", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]models.Course](t, env))
}

func TestModerationFlow(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.admin(t)
	_, instructor := app.register(t, "instructor", models.RoleInstructor)
	studentID, student := app.register(t, "student", models.RoleStudent)
	reporterID, reporter := app.register(t, "reporter", models.RoleStudent)
	course, _, _, _ := app.publishedCourse(t, instructor)

	code, env := app.do(t, http.MethodPost, "/api/reports", reporter, gin.H{"reported_user_id": reporterID, "reason": "me"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{services.ErrSelfReport.Error()}, env.Errors)

	code, env = app.do(t, http.MethodPost, "/api/reports", reporter, gin.H{"reported_user_id": studentID, "reason": "spam"})
	require.Equal(t, http.StatusOK, code, env.Message)
	report := decode[models.UserReport](t, env)

	code, _ = app.do(t, http.MethodGet, "/api/admin/reports", student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = app.do(t, http.MethodGet, "/api/admin/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.UserReport](t, env), 1)

	code, _ = app.do(t, http.MethodPost, fmt.Sprintf("/api/admin/reports/%d/timeout", report.ID), adminToken, gin.H{"timeout_hours": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = app.do(t, http.MethodPost, fmt.Sprintf("/api/admin/reports/%d/timeout", report.ID), adminToken, gin.H{"timeout_hours": 2, "admin_notes": "cool off"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, models.ReportApprovedTimeout, decode[models.UserReport](t, env).Status)

	code, env = app.do(t, http.MethodPost, fmt.Sprintf("/api/admin/reports/%d/ban", report.ID), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{services.ErrReportAlreadyReviewed.Error()}, env.Errors)

	// timed out users may read but not enroll
	code, _ = app.do(t, http.MethodGet, "/api/users/me", student, nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = app.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), student, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.True(t, decode[models.SanctionStatus](t, env).IsTimedOut)

	code, env = app.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/timeout", studentID), adminToken, gin.H{"timeout_hours": 0})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.False(t, decode[models.SanctionStatus](t, env).IsTimedOut)

	code, env = app.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), student, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = app.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/ban", studentID), adminToken, gin.H{"is_banned": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.True(t, decode[models.SanctionStatus](t, env).IsBanned)

	code, _ = app.do(t, http.MethodGet, "/api/users/me", student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = app.do(t, http.MethodGet, fmt.Sprintf("/api/admin/users/%d/reports", studentID), adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.UserReport](t, env), 1)
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)

	code, env := app.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = app.do(t, http.MethodGet, "/api/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"login": "ghost", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{services.ErrInvalidPassword.Error()}, env.Errors)
}

func TestRecommendationsFallBackToEmpty(t *testing.T) {
	app := newTestApp(t)
	_, student := app.register(t, "student", models.RoleStudent)

	code, env := app.do(t, http.MethodGet, "/api/recommendations", student, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestTimeoutHoursAreBounded(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.admin(t)
	studentID, _ := app.register(t, "student", models.RoleStudent)
	reporterID, reporter := app.register(t, "reporter", models.RoleStudent)
	require.NotEqual(t, studentID, reporterID)

	code, env := app.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/timeout", studentID), adminToken, gin.H{"timeout_hours": 3000000})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, env = app.do(t, http.MethodPost, "/api/reports", reporter, gin.H{"reported_user_id": studentID, "reason": "spam"})
	require.Equal(t, http.StatusOK, code, env.Message)
	report := decode[models.UserReport](t, env)

	code, _ = app.do(t, http.MethodPost, fmt.Sprintf("/api/admin/reports/%d/timeout", report.ID), adminToken, gin.H{"timeout_hours": 3000000})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = app.do(t, http.MethodGet, fmt.Sprintf("/api/admin/reports/%d", report.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.ReportPending, decode[models.UserReport](t, env).Status)

	// the largest accepted value still lands in the future
	code, env = app.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/timeout", studentID), adminToken, gin.H{"timeout_hours": 87600})
	require.Equal(t, http.StatusOK, code, env.Message)
	status := decode[models.SanctionStatus](t, env)
	assert.True(t, status.IsTimedOut)
	require.NotNil(t, status.TimeoutUntil)
	assert.True(t, status.TimeoutUntil.After(time.Now()))
}
