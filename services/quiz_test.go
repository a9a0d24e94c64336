package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/models"
)

func question(id uint, correct ...bool) models.QuizQuestion {
	q := models.QuizQuestion{ID: id}
	for i, c := range correct {
		q.Answers = append(q.Answers, models.QuizAnswer{ID: id*10 + uint(i), QuestionID: id, IsCorrect: c})
	}
	return q
}

func TestScoreQuestions(t *testing.T) {
	questions := []models.QuizQuestion{
		question(1, true, false),
		question(2, false, true),
		question(3, true, false),
		question(4, true, false),
		question(5, true, false),
	}

	tests := []struct {
		name    string
		answers map[uint]uint
		want    int
	}{
		{"all correct", map[uint]uint{1: 10, 2: 21, 3: 30, 4: 40, 5: 50}, 100},
		{"three of five with one missing", map[uint]uint{1: 10, 2: 21, 3: 30, 4: 41}, 60},
		{"unknown question ignored", map[uint]uint{1: 10, 99: 990}, 20},
		{"nothing answered", map[uint]uint{}, 0},
		{"two of five", map[uint]uint{1: 10, 2: 21}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreQuestions(questions, tt.answers))
		})
	}

	assert.Zero(t, scoreQuestions(nil, map[uint]uint{1: 10}))

	thirds := []models.QuizQuestion{question(1, true), question(2, true), question(3, true)}
	assert.Equal(t, 33, scoreQuestions(thirds, map[uint]uint{1: 10}))
	assert.Equal(t, 66, scoreQuestions(thirds, map[uint]uint{1: 10, 2: 20}))
}

func TestCorrectAnswerIsFirstFlaggedInIDOrder(t *testing.T) {
	q := question(7, false, true, true)

	id, ok := correctAnswerID(q)
	require.True(t, ok)
	assert.EqualValues(t, 71, id)

	assert.Zero(t, scoreQuestions([]models.QuizQuestion{q}, map[uint]uint{7: 72}))

	_, ok = correctAnswerID(question(8, false, false))
	assert.False(t, ok)
}

func TestSubmitQuizAnswersRecordsZeroScore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	enrollments := NewEnrollmentService(store, nil, "")
	quiz := NewQuizService(store, enrollments, nil, nil)

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	test := createLesson(t, store, course.ID, 1, true)
	createLesson(t, store, course.ID, 2, false)
	q := createQuestion(t, store, test.ID)

	e, err := enrollments.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	score, err := quiz.SubmitQuizAnswers(ctx, test.ID, e.ID, map[uint]uint{q.ID: q.Answers[1].ID})
	require.NoError(t, err)
	assert.Zero(t, score)

	p, err := enrollments.GetLessonProgress(ctx, e.ID, test.ID)
	require.NoError(t, err)
	assert.True(t, p.IsCompleted)
	require.NotNil(t, p.QuizScore)
	assert.Zero(t, *p.QuizScore)

	// a plain completion afterwards keeps the recorded score
	_, err = enrollments.MarkLessonComplete(ctx, test.ID, e.ID)
	require.NoError(t, err)
	p, err = enrollments.GetLessonProgress(ctx, e.ID, test.ID)
	require.NoError(t, err)
	require.NotNil(t, p.QuizScore)
	assert.Zero(t, *p.QuizScore)

	// a resubmission overwrites it
	score, err = quiz.SubmitQuizAnswers(ctx, test.ID, e.ID, map[uint]uint{q.ID: q.Answers[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 100, score)
	p, err = enrollments.GetLessonProgress(ctx, e.ID, test.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, *p.QuizScore)
}

func TestSubmitQuizAnswersRejectsNonQuizLesson(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	enrollments := NewEnrollmentService(store, nil, "")
	quiz := NewQuizService(store, enrollments, nil, nil)

	instructor := createUser(t, store, models.RoleInstructor)
	student := createUser(t, store, models.RoleStudent)
	course := createCourse(t, store, instructor.ID)
	reading := createLesson(t, store, course.ID, 1, false)
	e, err := enrollments.Enroll(ctx, course.ID, student.ID)
	require.NoError(t, err)

	_, err = quiz.SubmitQuizAnswers(ctx, reading.ID, e.ID, nil)
	assert.ErrorIs(t, err, ErrNotQuizLesson)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = quiz.SubmitQuizAnswers(ctx, 999, e.ID, nil)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	rows, err := store.CountLessonProgress(ctx, e.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestQuestionAndAnswerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	quiz := NewQuizService(store, NewEnrollmentService(store, nil, ""), nil, nil)

	instructor := createUser(t, store, models.RoleInstructor)
	course := createCourse(t, store, instructor.ID)
	test := createLesson(t, store, course.ID, 1, true)
	reading := createLesson(t, store, course.ID, 2, false)

	_, err := quiz.CreateQuestion(ctx, reading.ID, "Q?", 1, nil)
	assert.ErrorIs(t, err, ErrNotQuizLesson)

	q, err := quiz.CreateQuestion(ctx, test.ID, "  What is 2+2?  ", 2, []models.QuizAnswer{{AnswerText: "4", IsCorrect: true}})
	require.NoError(t, err)
	assert.Equal(t, "What is 2+2?", q.QuestionText)

	a, err := quiz.CreateAnswer(ctx, q.ID, "5", false)
	require.NoError(t, err)

	a, err = quiz.UpdateAnswer(ctx, a.ID, "five", true)
	require.NoError(t, err)
	assert.Equal(t, "five", a.AnswerText)
	assert.True(t, a.IsCorrect)

	q, err = quiz.UpdateQuestion(ctx, q.ID, "What is two plus two?", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Points)
	assert.Len(t, q.Answers, 2)

	require.NoError(t, quiz.DeleteAnswer(ctx, a.ID))
	assert.ErrorIs(t, quiz.DeleteAnswer(ctx, a.ID), ErrAnswerNotFound)

	require.NoError(t, quiz.DeleteQuestion(ctx, q.ID))
	assert.ErrorIs(t, quiz.DeleteQuestion(ctx, q.ID), ErrQuestionNotFound)

	questions, err := quiz.ListQuestions(ctx, test.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)

	_, err = quiz.CreateAnswer(ctx, q.ID, "x", false)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestUpdateQuestionOfDeletedLesson(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	quiz := NewQuizService(store, NewEnrollmentService(store, nil, ""), nil, nil)

	instructor := createUser(t, store, models.RoleInstructor)
	course := createCourse(t, store, instructor.ID)
	test := createLesson(t, store, course.ID, 1, true)
	q := createQuestion(t, store, test.ID)

	require.NoError(t, store.DB().Delete(&models.Lesson{}, test.ID).Error)

	_, err := quiz.UpdateQuestion(ctx, q.ID, "orphan", 1)
	assert.ErrorIs(t, err, ErrLessonGone)
}

func TestCreateQuestionKeepsZeroPoints(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	quiz := NewQuizService(store, NewEnrollmentService(store, nil, ""), nil, nil)

	instructor := createUser(t, store, models.RoleInstructor)
	course := createCourse(t, store, instructor.ID)
	test := createLesson(t, store, course.ID, 1, true)

	q, err := quiz.CreateQuestion(ctx, test.ID, "Warm-up", 0, []models.QuizAnswer{{AnswerText: "ok", IsCorrect: true}})
	require.NoError(t, err)
	assert.Equal(t, 0, q.Points)

	stored, err := quiz.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Points)
}

func TestUpdateAnswerDeletedMeanwhile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	quiz := NewQuizService(store, NewEnrollmentService(store, nil, ""), nil, nil)

	instructor := createUser(t, store, models.RoleInstructor)
	course := createCourse(t, store, instructor.ID)
	test := createLesson(t, store, course.ID, 1, true)
	q := createQuestion(t, store, test.ID)
	answerID := q.Answers[1].ID

	// another request removes the answer right after the update lands
	err := store.DB().Callback().Update().After("gorm:update").Register("test:drop_answer", func(db *gorm.DB) {
		if db.Statement.Table == "quiz_answers" {
			db.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM quiz_answers WHERE id = ?", answerID)
		}
	})
	require.NoError(t, err)

	_, err = quiz.UpdateAnswer(ctx, answerID, "goroutine", false)
	assert.ErrorIs(t, err, ErrAnswerNotFound)
}

type stubGenerator struct {
	material string
	count    int
	out      []models.QuizQuestion
	err      error
}

func (g *stubGenerator) GenerateQuestions(_ context.Context, material string, count int) ([]models.QuizQuestion, error) {
	g.material = material
	g.count = count
	return g.out, g.err
}

type stubDocuments struct {
	text string
}

func (d stubDocuments) ReadText(context.Context, string) (string, error) {
	return d.text, nil
}

func TestGenerateQuestions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	enrollments := NewEnrollmentService(store, nil, "")

	instructor := createUser(t, store, models.RoleInstructor)
	course := createCourse(t, store, instructor.ID)
	inline := &models.Lesson{CourseID: course.ID, Title: "Channels", Content: "Channels connect goroutines.", IsQuiz: true, Order: 1}
	require.NoError(t, store.CreateLesson(ctx, inline))
	document := &models.Lesson{CourseID: course.ID, Title: "Select", DocumentURL: "https://files.example.com/select.pdf", IsQuiz: true, Order: 2}
	require.NoError(t, store.CreateLesson(ctx, document))

	t.Run("unconfigured", func(t *testing.T) {
		quiz := NewQuizService(store, enrollments, nil, nil)
		_, err := quiz.GenerateQuestions(ctx, inline.ID, 3)
		assert.ErrorIs(t, err, ErrGeneratorUnavailable)
	})

	t.Run("from content", func(t *testing.T) {
		gen := &stubGenerator{out: []models.QuizQuestion{
			{ID: 42, QuestionText: "What do channels connect?", Points: 1, Answers: []models.QuizAnswer{
				{ID: 7, AnswerText: "goroutines", IsCorrect: true},
				{AnswerText: "packages"},
			}},
		}}
		quiz := NewQuizService(store, enrollments, gen, nil)

		saved, err := quiz.GenerateQuestions(ctx, inline.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 5, gen.count)
		assert.Equal(t, "Channels connect goroutines.", gen.material)
		require.Len(t, saved, 1)
		assert.Equal(t, inline.ID, saved[0].LessonID)

		stored, err := quiz.ListQuestions(ctx, inline.ID)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		require.Len(t, stored[0].Answers, 2)
		assert.True(t, stored[0].Answers[0].IsCorrect)
	})

	t.Run("from document", func(t *testing.T) {
		gen := &stubGenerator{out: []models.QuizQuestion{{QuestionText: "Q", Answers: []models.QuizAnswer{{AnswerText: "a", IsCorrect: true}, {AnswerText: "b"}}}}}
		quiz := NewQuizService(store, enrollments, gen, stubDocuments{text: "select waits on channels"})

		_, err := quiz.GenerateQuestions(ctx, document.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, "select waits on channels", gen.material)
		assert.Equal(t, 2, gen.count)
	})

	t.Run("generator failure stores nothing", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("quota exceeded")}
		quiz := NewQuizService(store, enrollments, gen, nil)

		before, err := quiz.ListQuestions(ctx, inline.ID)
		require.NoError(t, err)
		_, err = quiz.GenerateQuestions(ctx, inline.ID, 1)
		assert.Error(t, err)
		after, err := quiz.ListQuestions(ctx, inline.ID)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}
