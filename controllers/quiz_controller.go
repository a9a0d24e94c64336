package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

const maxImportBytes = 2 << 20

type AnswerInput struct {
	AnswerText string `json:"answer_text" binding:"required"`
	IsCorrect  bool   `json:"is_correct"`
}

type QuestionInput struct {
	QuestionText string        `json:"question_text" binding:"required"`
	Points       int           `json:"points" binding:"gte=0"`
	Answers      []AnswerInput `json:"answers" binding:"dive"`
}

type SubmitInput struct {
	Answers map[uint]uint `json:"answers"`
}

type GenerateInput struct {
	Count int `json:"count" binding:"gte=0,lte=20"`
}

type QuizController struct {
	quiz    *services.QuizService
	catalog *services.CatalogService
	access  *access
}

func NewQuizController(quiz *services.QuizService, catalog *services.CatalogService, enrollments *services.EnrollmentService) *QuizController {
	return &QuizController{quiz: quiz, catalog: catalog, access: newAccess(catalog, enrollments)}
}

// ListQuestions returns the full question bank to the course manager and a
// view without correct flags to enrolled students.
func (h *QuizController) ListQuestions(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	lesson, err := h.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		respondAccess(c, err)
		return
	}
	_, manageErr := h.catalog.ManagedCourse(ctx, middleware.CurrentActor(c), lesson.CourseID)
	if manageErr != nil && !h.access.canViewCourse(c, lesson.CourseID) {
		return
	}

	questions, err := h.quiz.ListQuestions(ctx, lessonID)
	if err != nil {
		respondError(c, err)
		return
	}
	if manageErr != nil {
		utils.Success(c, "", models.ToStudentView(questions))
		return
	}
	utils.Success(c, "", questions)
}

// Submit grades the caller's answers and records them against the
// caller's enrollment in the lesson's course.
func (h *QuizController) Submit(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input SubmitInput
	if !bindJSON(c, &input) {
		return
	}
	lesson, enrollment, ok := h.access.studentLesson(c, lessonID)
	if !ok {
		return
	}
	score, err := h.quiz.SubmitQuizAnswers(c.Request.Context(), lesson.ID, enrollment.ID, input.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "quiz submitted", gin.H{"score": score})
}

func (h *QuizController) CreateQuestion(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input QuestionInput
	if !bindJSON(c, &input) {
		return
	}
	if _, ok := h.access.managedLesson(c, lessonID); !ok {
		return
	}
	answers := make([]models.QuizAnswer, 0, len(input.Answers))
	for _, a := range input.Answers {
		answers = append(answers, models.QuizAnswer{AnswerText: a.AnswerText, IsCorrect: a.IsCorrect})
	}
	q, err := h.quiz.CreateQuestion(c.Request.Context(), lessonID, input.QuestionText, input.Points, answers)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "question created", q)
}

// questionOwner checks the caller manages the question's lesson. A question
// whose lesson is gone passes, and the engine reports the orphan.
func (h *QuizController) questionOwner(c *gin.Context, questionID uint) bool {
	q, err := h.quiz.GetQuestion(c.Request.Context(), questionID)
	if err != nil {
		respondAccess(c, err)
		return false
	}
	_, err = h.catalog.ManagedLesson(c.Request.Context(), middleware.CurrentActor(c), q.LessonID)
	if err == nil || errors.Is(err, services.ErrLessonNotFound) {
		return true
	}
	respondAccess(c, err)
	return false
}

func (h *QuizController) UpdateQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input QuestionInput
	if !bindJSON(c, &input) {
		return
	}
	if !h.questionOwner(c, questionID) {
		return
	}
	q, err := h.quiz.UpdateQuestion(c.Request.Context(), questionID, input.QuestionText, input.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "question updated", q)
}

func (h *QuizController) DeleteQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.questionOwner(c, questionID) {
		return
	}
	if err := h.quiz.DeleteQuestion(c.Request.Context(), questionID); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "question deleted", nil)
}

func (h *QuizController) CreateAnswer(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input AnswerInput
	if !bindJSON(c, &input) {
		return
	}
	if !h.questionOwner(c, questionID) {
		return
	}
	a, err := h.quiz.CreateAnswer(c.Request.Context(), questionID, input.AnswerText, input.IsCorrect)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "answer created", a)
}

func (h *QuizController) answerOwner(c *gin.Context, answerID uint) bool {
	a, err := h.quiz.GetAnswer(c.Request.Context(), answerID)
	if err != nil {
		respondAccess(c, err)
		return false
	}
	return h.questionOwner(c, a.QuestionID)
}

func (h *QuizController) UpdateAnswer(c *gin.Context) {
	answerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input AnswerInput
	if !bindJSON(c, &input) {
		return
	}
	if !h.answerOwner(c, answerID) {
		return
	}
	a, err := h.quiz.UpdateAnswer(c.Request.Context(), answerID, input.AnswerText, input.IsCorrect)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "answer updated", a)
}

func (h *QuizController) DeleteAnswer(c *gin.Context) {
	answerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.answerOwner(c, answerID) {
		return
	}
	if err := h.quiz.DeleteAnswer(c.Request.Context(), answerID); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "answer deleted", nil)
}

func (h *QuizController) Generate(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input GenerateInput
	if !bindJSON(c, &input) {
		return
	}
	if _, ok := h.access.managedLesson(c, lessonID); !ok {
		return
	}
	questions, err := h.quiz.GenerateQuestions(c.Request.Context(), lessonID, input.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "questions generated", questions)
}

// Import reads questions from an uploaded csv or xlsx sheet.
func (h *QuizController) Import(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.access.managedLesson(c, lessonID); !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, "missing file")
		return
	}
	if fileHeader.Size > maxImportBytes {
		utils.Fail(c, "question file is too large")
		return
	}
	format, err := services.SheetFormatOf(fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, "cannot read file")
		return
	}
	defer file.Close()

	parsed, err := services.ParseQuestionSheet(file, format)
	if err != nil {
		utils.Fail(c, "cannot parse question file", err.Error())
		return
	}
	if len(parsed) == 0 {
		utils.Fail(c, "question file contains no questions")
		return
	}
	questions, err := h.quiz.ImportQuestions(c.Request.Context(), lessonID, parsed)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "questions imported", gin.H{"questions": questions, "total": len(questions)})
}
