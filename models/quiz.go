package models

type QuizQuestion struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	LessonID     uint         `gorm:"not null;index" json:"lesson_id"`
	QuestionText string       `gorm:"type:text;not null" json:"question_text"`
	Points       int          `gorm:"not null" json:"points"` // stored for display, scoring weighs every question equally
	Answers      []QuizAnswer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;" json:"answers"`
}

type QuizAnswer struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	AnswerText string `gorm:"type:text;not null" json:"answer_text"`
	IsCorrect  bool   `gorm:"default:false" json:"is_correct"`
}

// QuizAnswerDTO hides the correct flag from students.
type QuizAnswerDTO struct {
	ID         uint   `json:"id"`
	AnswerText string `json:"answer_text"`
}

type QuizQuestionDTO struct {
	ID           uint            `json:"id"`
	LessonID     uint            `json:"lesson_id"`
	QuestionText string          `json:"question_text"`
	Points       int             `json:"points"`
	Answers      []QuizAnswerDTO `json:"answers"`
}

// ToStudentView strips answer correctness from a question set.
func ToStudentView(questions []QuizQuestion) []QuizQuestionDTO {
	out := make([]QuizQuestionDTO, 0, len(questions))
	for _, q := range questions {
		answers := make([]QuizAnswerDTO, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, QuizAnswerDTO{ID: a.ID, AnswerText: a.AnswerText})
		}
		out = append(out, QuizQuestionDTO{
			ID:           q.ID,
			LessonID:     q.LessonID,
			QuestionText: q.QuestionText,
			Points:       q.Points,
			Answers:      answers,
		})
	}
	return out
}
