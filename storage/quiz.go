package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/models"
)

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// CreateQuestion inserts a question together with any inline answers.
func (s *Store) CreateQuestion(ctx context.Context, q *models.QuizQuestion) error {
	if err := s.conn(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	var q models.QuizQuestion
	if err := s.conn(ctx).Preload("Answers", orderByID).First(&q, id).Error; err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return &q, nil
}

// ListQuestions loads every question of a lesson with its answers, both in
// id order.
func (s *Store) ListQuestions(ctx context.Context, lessonID uint) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	err := s.conn(ctx).
		Preload("Answers", orderByID).
		Where("lesson_id = ?", lessonID).
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("list questions of lesson %d: %w", lessonID, err)
	}
	return questions, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, id uint, text string, points int) (int64, error) {
	res := s.conn(ctx).Model(&models.QuizQuestion{}).Where("id = ?", id).Updates(map[string]any{
		"question_text": text,
		"points":        points,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("update question %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteQuestion removes the question and its answers. Call it inside
// Transaction.
func (s *Store) DeleteQuestion(ctx context.Context, id uint) (int64, error) {
	db := s.conn(ctx)
	if err := db.Where("question_id = ?", id).Delete(&models.QuizAnswer{}).Error; err != nil {
		return 0, fmt.Errorf("delete answers of question %d: %w", id, err)
	}
	res := db.Delete(&models.QuizQuestion{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete question %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CreateAnswer(ctx context.Context, a *models.QuizAnswer) error {
	if err := s.conn(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

func (s *Store) GetAnswer(ctx context.Context, id uint) (*models.QuizAnswer, error) {
	var a models.QuizAnswer
	if err := s.conn(ctx).First(&a, id).Error; err != nil {
		return nil, fmt.Errorf("get answer %d: %w", id, err)
	}
	return &a, nil
}

func (s *Store) UpdateAnswer(ctx context.Context, id uint, text string, isCorrect bool) (int64, error) {
	res := s.conn(ctx).Model(&models.QuizAnswer{}).Where("id = ?", id).Updates(map[string]any{
		"answer_text": text,
		"is_correct":  isCorrect,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("update answer %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteAnswer(ctx context.Context, id uint) (int64, error) {
	res := s.conn(ctx).Delete(&models.QuizAnswer{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete answer %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}
