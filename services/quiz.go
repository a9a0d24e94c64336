package services

import (
	"context"
	"log"
	"strings"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/storage"
)

// QuestionGenerator drafts multiple choice questions from lesson material.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, material string, count int) ([]models.QuizQuestion, error)
}

// DocumentReader returns the plain text of a lesson document.
type DocumentReader interface {
	ReadText(ctx context.Context, url string) (string, error)
}

type QuizService struct {
	store       *storage.Store
	enrollments *EnrollmentService
	generator   QuestionGenerator
	documents   DocumentReader
}

// NewQuizService wires the scoring engine. generator and documents may be
// nil; generation then fails with ErrGeneratorUnavailable.
func NewQuizService(store *storage.Store, enrollments *EnrollmentService, generator QuestionGenerator, documents DocumentReader) *QuizService {
	return &QuizService{
		store:       store,
		enrollments: enrollments,
		generator:   generator,
		documents:   documents,
	}
}

// Score grades answers (question id -> chosen answer id) against every
// question of the lesson. Each question weighs the same; points are not used.
func (s *QuizService) Score(ctx context.Context, lessonID uint, answers map[uint]uint) (int, error) {
	questions, err := s.store.ListQuestions(ctx, lessonID)
	if err != nil {
		return 0, err
	}
	return scoreQuestions(questions, answers), nil
}

func scoreQuestions(questions []models.QuizQuestion, answers map[uint]uint) int {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range questions {
		chosen, ok := answers[q.ID]
		if !ok {
			continue
		}
		if id, ok := correctAnswerID(q); ok && id == chosen {
			correct++
		}
	}
	return correct * 100 / len(questions)
}

// correctAnswerID picks the first answer flagged correct, in id order.
func correctAnswerID(q models.QuizQuestion) (uint, bool) {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a.ID, true
		}
	}
	return 0, false
}

// SubmitQuizAnswers scores the submission and records it as completed
// progress with the score, including a score of 0.
func (s *QuizService) SubmitQuizAnswers(ctx context.Context, lessonID, enrollmentID uint, answers map[uint]uint) (int, error) {
	if _, err := s.quizLesson(ctx, lessonID); err != nil {
		return 0, err
	}
	score, err := s.Score(ctx, lessonID, answers)
	if err != nil {
		return 0, err
	}
	if _, err := s.enrollments.recordProgress(ctx, lessonID, enrollmentID, &score); err != nil {
		return 0, err
	}
	return score, nil
}

func (s *QuizService) quizLesson(ctx context.Context, lessonID uint) (*models.Lesson, error) {
	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	if !lesson.IsQuiz {
		return nil, ErrNotQuizLesson
	}
	return lesson, nil
}

func (s *QuizService) ListQuestions(ctx context.Context, lessonID uint) ([]models.QuizQuestion, error) {
	if _, err := s.store.GetLesson(ctx, lessonID); err != nil {
		if isNotFound(err) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return s.store.ListQuestions(ctx, lessonID)
}

func (s *QuizService) GetQuestion(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// CreateQuestion adds a question, with optional inline answers, to a quiz lesson.
func (s *QuizService) CreateQuestion(ctx context.Context, lessonID uint, text string, points int, answers []models.QuizAnswer) (*models.QuizQuestion, error) {
	if _, err := s.quizLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	q := &models.QuizQuestion{
		LessonID:     lessonID,
		QuestionText: strings.TrimSpace(text),
		Points:       points,
		Answers:      answers,
	}
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuestion overwrites text and points. The owning lesson must still
// exist but is not re-checked for being a quiz.
func (s *QuizService) UpdateQuestion(ctx context.Context, id uint, text string, points int) (*models.QuizQuestion, error) {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetLesson(ctx, q.LessonID); err != nil {
		if isNotFound(err) {
			return nil, ErrLessonGone
		}
		return nil, err
	}
	if _, err := s.store.UpdateQuestion(ctx, id, strings.TrimSpace(text), points); err != nil {
		return nil, err
	}
	return s.GetQuestion(ctx, id)
}

// DeleteQuestion removes the question and all of its answers.
func (s *QuizService) DeleteQuestion(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(tx *storage.Store) error {
		n, err := tx.DeleteQuestion(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrQuestionNotFound
		}
		return nil
	})
}

func (s *QuizService) CreateAnswer(ctx context.Context, questionID uint, text string, isCorrect bool) (*models.QuizAnswer, error) {
	if _, err := s.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	a := &models.QuizAnswer{
		QuestionID: questionID,
		AnswerText: strings.TrimSpace(text),
		IsCorrect:  isCorrect,
	}
	if err := s.store.CreateAnswer(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAnswer overwrites text and the correct flag.
func (s *QuizService) UpdateAnswer(ctx context.Context, id uint, text string, isCorrect bool) (*models.QuizAnswer, error) {
	n, err := s.store.UpdateAnswer(ctx, id, strings.TrimSpace(text), isCorrect)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrAnswerNotFound
	}
	return s.GetAnswer(ctx, id)
}

func (s *QuizService) GetAnswer(ctx context.Context, id uint) (*models.QuizAnswer, error) {
	a, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *QuizService) DeleteAnswer(ctx context.Context, id uint) error {
	n, err := s.store.DeleteAnswer(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAnswerNotFound
	}
	return nil
}

// GenerateQuestions drafts count questions from the lesson content, or from
// its document when the lesson has no inline content, and stores them.
func (s *QuizService) GenerateQuestions(ctx context.Context, lessonID uint, count int) ([]models.QuizQuestion, error) {
	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}
	lesson, err := s.quizLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 5
	}

	material := strings.TrimSpace(lesson.Content)
	if material == "" && lesson.DocumentURL != "" && s.documents != nil {
		if material, err = s.documents.ReadText(ctx, lesson.DocumentURL); err != nil {
			return nil, err
		}
	}
	if material == "" {
		material = lesson.Title + "\n" + lesson.Description
	}

	drafted, err := s.generator.GenerateQuestions(ctx, material, count)
	if err != nil {
		return nil, err
	}
	return s.saveQuestions(ctx, lessonID, drafted)
}

// ImportQuestions stores questions parsed from an uploaded csv or xlsx sheet.
func (s *QuizService) ImportQuestions(ctx context.Context, lessonID uint, questions []models.QuizQuestion) ([]models.QuizQuestion, error) {
	if _, err := s.quizLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return s.saveQuestions(ctx, lessonID, questions)
}

func (s *QuizService) saveQuestions(ctx context.Context, lessonID uint, questions []models.QuizQuestion) ([]models.QuizQuestion, error) {
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		for i := range questions {
			questions[i].ID = 0
			questions[i].LessonID = lessonID
			for j := range questions[i].Answers {
				questions[i].Answers[j].ID = 0
				questions[i].Answers[j].QuestionID = 0
			}
			if err := tx.CreateQuestion(ctx, &questions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("stored %d questions for lesson %d", len(questions), lessonID)
	return questions, nil
}
