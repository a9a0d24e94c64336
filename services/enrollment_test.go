package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/models"
)

func TestEnrollCreatesEnrollmentWithCertificateStub(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "https://certs.example.com")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)

	e, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.FinalGrade)
	require.NotNil(t, e.Certificate)
	assert.NotEmpty(t, e.Certificate.CertificateNumber)
	assert.Empty(t, e.Certificate.CertificateURL)

	enrolled, err := svc.IsEnrolled(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestEnrollmentPairIsUniqueInStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)

	_, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	err = store.CreateEnrollment(ctx, &models.Enrollment{
		StudentID:   student.ID,
		CourseID:    course.ID,
		EnrolledAt:  time.Now(),
		Certificate: &models.Certificate{CertificateNumber: "second-stub"},
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	total, _, err := store.CountEnrollments(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestConcurrentEnrollKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Enroll(ctx, course.ID, student.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	}
	assert.Equal(t, 1, succeeded)

	total, _, err := store.CountEnrollments(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestEnrollTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)

	_, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, course.ID, student.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.ErrorIs(t, err, ErrConflict)

	total, _, err := store.CountEnrollments(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestEnrollValidatesCourseAndRole(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)

	_, err := svc.Enroll(ctx, 999, student.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = svc.Enroll(ctx, course.ID, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Enroll(ctx, course.ID, instructor.ID)
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUnenrollRemovesProgressAndAllowsFreshEnrollment(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	l1 := createLesson(t, store, course.ID, 1, false)
	createLesson(t, store, course.ID, 2, false)

	first, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)
	_, err = svc.MarkLessonComplete(ctx, l1.ID, first.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unenroll(ctx, course.ID, student.ID))

	rows, err := store.CountLessonProgress(ctx, first.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)
	_, err = svc.GetEnrollment(ctx, first.ID)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)

	second, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	pct, err := svc.CourseProgress(ctx, course.ID, second.ID)
	require.NoError(t, err)
	assert.Zero(t, pct)
}

func TestUnenrollWithoutEnrollment(t *testing.T) {
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	err := svc.Unenroll(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseProgress(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	empty := createCourse(t, store, instructor.ID)

	var lessons []*models.Lesson
	for i := 1; i <= 4; i++ {
		lessons = append(lessons, createLesson(t, store, course.ID, i, false))
	}

	e, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)
	_, err = svc.MarkLessonComplete(ctx, lessons[0].ID, e.ID)
	require.NoError(t, err)

	pct, err := svc.CourseProgress(ctx, course.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, pct)

	detail, err := svc.Progress(ctx, e.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, detail.CompletedLessons)
	assert.EqualValues(t, 4, detail.TotalLessons)
	assert.Equal(t, 25.0, detail.Progress)

	pct, err = svc.CourseProgress(ctx, empty.ID, e.ID)
	require.NoError(t, err)
	assert.Zero(t, pct)
}

func TestMarkLessonCompleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	lesson := createLesson(t, store, course.ID, 1, false)
	createLesson(t, store, course.ID, 2, false)

	e, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p, err := svc.MarkLessonComplete(ctx, lesson.ID, e.ID)
		require.NoError(t, err)
		assert.True(t, p.IsCompleted)
		assert.NotNil(t, p.CompletedAt)
	}

	rows, err := store.CountLessonProgress(ctx, e.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)
}

func TestMarkLessonCompleteUnknownTargets(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	course := createCourse(t, store, instructor.ID)
	lesson := createLesson(t, store, course.ID, 1, false)

	_, err := svc.MarkLessonComplete(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = svc.MarkLessonComplete(ctx, lesson.ID, 999)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestFinishingCourseCompletesEnrollmentOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := &recordingNotifier{}
	enrollments := NewEnrollmentService(store, notifier, "https://certs.example.com/")
	quiz := NewQuizService(store, enrollments, nil, nil)

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	reading := createLesson(t, store, course.ID, 1, false)
	test := createLesson(t, store, course.ID, 2, true)
	q1 := createQuestion(t, store, test.ID)
	createQuestion(t, store, test.ID)

	e, err := enrollments.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	score, err := quiz.SubmitQuizAnswers(ctx, test.ID, e.ID, map[uint]uint{q1.ID: q1.Answers[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 50, score)

	got, err := enrollments.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)

	_, err = enrollments.MarkLessonComplete(ctx, reading.ID, e.ID)
	require.NoError(t, err)

	got, err = enrollments.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.FinalGrade)
	assert.Equal(t, 50, *got.FinalGrade)
	require.NotNil(t, got.Certificate)
	assert.Equal(t, "https://certs.example.com/"+got.Certificate.CertificateNumber, got.Certificate.CertificateURL)

	// Repeating a lesson after completion must not re-run the transition.
	_, err = enrollments.MarkLessonComplete(ctx, reading.ID, e.ID)
	require.NoError(t, err)

	completed := notifier.of(models.EventEnrollmentCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, student.ID, completed[0].UserID)

	stats, err := enrollments.CourseStats(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Enrolled)
	assert.EqualValues(t, 1, stats.Completed)
	assert.Equal(t, 100.0, stats.CompletionRate)
}

func TestAverageScore(t *testing.T) {
	assert.Nil(t, averageScore(nil))

	avg := averageScore([]int{100, 50, 0})
	require.NotNil(t, avg)
	assert.Equal(t, 50, *avg)

	avg = averageScore([]int{100, 67})
	require.NotNil(t, avg)
	assert.Equal(t, 83, *avg)
}

func TestEnrolledStudentsAndCourses(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	alice := createUser(t, store, models.RoleStudent)
	bob := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	lesson := createLesson(t, store, course.ID, 1, false)
	createLesson(t, store, course.ID, 2, false)

	ea, err := svc.Enroll(ctx, course.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, course.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.MarkLessonComplete(ctx, lesson.ID, ea.ID)
	require.NoError(t, err)

	roster, err := svc.EnrolledStudents(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, alice.ID, roster[0].Student.ID)
	assert.Equal(t, 50.0, roster[0].Progress)
	assert.Zero(t, roster[1].Progress)

	mine, err := svc.EnrolledCourses(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, course.ID, mine[0].Course.ID)

	_, err = svc.EnrolledStudents(ctx, 999)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestExportRoster(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	_, err := svc.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	f, err := svc.ExportRoster(ctx, course.ID)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Student ID", rows[0][0])
	assert.Equal(t, student.Username, rows[1][1])
	assert.Equal(t, fullName(student.FirstName, student.LastName), rows[1][2])
}
