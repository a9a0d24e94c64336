package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

type LessonController struct {
	catalog *services.CatalogService
	access  *access
}

func NewLessonController(catalog *services.CatalogService, enrollments *services.EnrollmentService) *LessonController {
	return &LessonController{catalog: catalog, access: newAccess(catalog, enrollments)}
}

// GetLesson is readable by the course manager and its enrolled students.
func (h *LessonController) GetLesson(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	lesson, err := h.catalog.GetLesson(c.Request.Context(), lessonID)
	if err != nil {
		respondAccess(c, err)
		return
	}
	if !h.access.canViewCourse(c, lesson.CourseID) {
		return
	}
	utils.Success(c, "", lesson)
}

func (h *LessonController) UpdateLesson(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input LessonInput
	if !bindJSON(c, &input) {
		return
	}
	lesson, err := h.catalog.UpdateLesson(c.Request.Context(), middleware.CurrentActor(c), lessonID, input.toService())
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "lesson updated", lesson)
}

func (h *LessonController) DeleteLesson(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteLesson(c.Request.Context(), middleware.CurrentActor(c), lessonID); err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "lesson deleted", nil)
}
