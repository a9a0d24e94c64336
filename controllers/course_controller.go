package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

const maxThumbnailBytes = 5 << 20

type CourseInput struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	IsPublished bool   `json:"is_published"`
}

type PublishInput struct {
	IsPublished bool `json:"is_published"`
}

type LessonInput struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Content     string `json:"content"`
	VideoURL    string `json:"video_url"`
	DocumentURL string `json:"document_url"`
	Order       int    `json:"order" binding:"gte=0"`
	IsQuiz      bool   `json:"is_quiz"`
}

type ReorderInput struct {
	Lessons []services.LessonOrder `json:"lessons" binding:"required,min=1"`
}

type MessageInput struct {
	Message string `json:"message" binding:"required"`
}

func (in CourseInput) toService() services.CourseInput {
	return services.CourseInput{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Level:       in.Level,
		IsPublished: in.IsPublished,
	}
}

func (in LessonInput) toService() services.LessonInput {
	return services.LessonInput{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		VideoURL:    in.VideoURL,
		DocumentURL: in.DocumentURL,
		Order:       in.Order,
		IsQuiz:      in.IsQuiz,
	}
}

type CourseController struct {
	catalog *services.CatalogService
	access  *access
}

func NewCourseController(catalog *services.CatalogService, enrollments *services.EnrollmentService) *CourseController {
	return &CourseController{catalog: catalog, access: newAccess(catalog, enrollments)}
}

func (h *CourseController) ListPublished(c *gin.Context) {
	courses, err := h.catalog.ListPublished(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", courses)
}

func (h *CourseController) MyCourses(c *gin.Context) {
	id, _ := middleware.CurrentUserID(c)
	courses, err := h.catalog.ListByInstructor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", courses)
}

// GetCourse returns a course with its ordered lessons. Unpublished courses
// are only visible to their instructor and admins.
func (h *CourseController) GetCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	course, err := h.catalog.GetCourse(ctx, courseID)
	if err != nil {
		respondAccess(c, err)
		return
	}
	if !course.IsPublished {
		if _, err := h.catalog.ManagedCourse(ctx, middleware.CurrentActor(c), courseID); err != nil {
			utils.FailWithStatus(c, http.StatusNotFound, services.ErrCourseNotFound.Error())
			return
		}
	}
	lessons, err := h.catalog.ListLessons(ctx, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"course": course, "lessons": lessons})
}

func (h *CourseController) CreateCourse(c *gin.Context) {
	var input CourseInput
	if !bindJSON(c, &input) {
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), middleware.CurrentActor(c), input.toService())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "course created", course)
}

func (h *CourseController) UpdateCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input CourseInput
	if !bindJSON(c, &input) {
		return
	}
	course, err := h.catalog.UpdateCourse(c.Request.Context(), middleware.CurrentActor(c), courseID, input.toService())
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "course updated", course)
}

func (h *CourseController) Publish(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input PublishInput
	if !bindJSON(c, &input) {
		return
	}
	course, err := h.catalog.SetPublished(c.Request.Context(), middleware.CurrentActor(c), courseID, input.IsPublished)
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "course updated", course)
}

func (h *CourseController) DeleteCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCourse(c.Request.Context(), middleware.CurrentActor(c), courseID); err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "course deleted", nil)
}

func (h *CourseController) UploadThumbnail(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, "missing file")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.Fail(c, "thumbnail must be an image")
		return
	}
	if fileHeader.Size > maxThumbnailBytes {
		utils.Fail(c, fmt.Sprintf("thumbnail exceeds %d MB", maxThumbnailBytes>>20))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, "cannot read file")
		return
	}
	defer file.Close()

	course, err := h.catalog.UploadThumbnail(c.Request.Context(), middleware.CurrentActor(c), courseID, fileHeader.Filename, contentType, file)
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "thumbnail uploaded", course)
}

func (h *CourseController) ListLessons(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	lessons, err := h.catalog.ListLessons(c.Request.Context(), courseID)
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "", lessons)
}

func (h *CourseController) CreateLesson(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input LessonInput
	if !bindJSON(c, &input) {
		return
	}
	lesson, err := h.catalog.CreateLesson(c.Request.Context(), middleware.CurrentActor(c), courseID, input.toService())
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "lesson created", lesson)
}

func (h *CourseController) ReorderLessons(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input ReorderInput
	if !bindJSON(c, &input) {
		return
	}
	lessons, err := h.catalog.ReorderLessons(c.Request.Context(), middleware.CurrentActor(c), courseID, input.Lessons)
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "lessons reordered", lessons)
}

func (h *CourseController) SendMessage(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input MessageInput
	if !bindJSON(c, &input) {
		return
	}
	msg, err := h.catalog.SendCourseMessage(c.Request.Context(), middleware.CurrentActor(c), courseID, input.Message)
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "message sent", msg)
}

// Messages lists course announcements for enrolled students, the
// instructor and admins.
func (h *CourseController) Messages(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.access.canViewCourse(c, courseID) {
		return
	}
	msgs, err := h.catalog.CourseMessages(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", msgs)
}
