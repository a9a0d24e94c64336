package controllers

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EnrollmentController struct {
	enrollments *services.EnrollmentService
	access      *access
}

func NewEnrollmentController(catalog *services.CatalogService, enrollments *services.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{enrollments: enrollments, access: newAccess(catalog, enrollments)}
}

// Enroll enrolls the calling student in the course.
func (h *EnrollmentController) Enroll(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	studentID, _ := middleware.CurrentUserID(c)
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), courseID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "enrolled", enrollment)
}

func (h *EnrollmentController) Unenroll(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	studentID, _ := middleware.CurrentUserID(c)
	if err := h.enrollments.Unenroll(c.Request.Context(), courseID, studentID); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "unenrolled", nil)
}

func (h *EnrollmentController) Status(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	studentID, _ := middleware.CurrentUserID(c)
	enrolled, err := h.enrollments.IsEnrolled(c.Request.Context(), courseID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"course_id": courseID, "is_enrolled": enrolled})
}

// Progress returns the caller's progress in a course with every lesson row.
func (h *EnrollmentController) Progress(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	studentID, _ := middleware.CurrentUserID(c)
	enrollment, err := h.enrollments.FindEnrollment(ctx, courseID, studentID)
	if err != nil {
		respondAccess(c, err)
		return
	}
	progress, err := h.enrollments.Progress(ctx, enrollment.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	lessons, err := h.enrollments.ListLessonProgress(ctx, enrollment.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", gin.H{"progress": progress, "lessons": lessons, "enrollment": enrollment})
}

// CompleteLesson marks a lesson done for the caller. The enrollment is the
// caller's enrollment in the lesson's own course.
func (h *EnrollmentController) CompleteLesson(c *gin.Context) {
	lessonID, ok := parseID(c, "id")
	if !ok {
		return
	}
	lesson, enrollment, ok := h.access.studentLesson(c, lessonID)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	progress, err := h.enrollments.MarkLessonComplete(ctx, lesson.ID, enrollment.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	pct, err := h.enrollments.CourseProgress(ctx, lesson.CourseID, enrollment.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "lesson completed", gin.H{"lesson_progress": progress, "course_progress": pct})
}

func (h *EnrollmentController) MyCourses(c *gin.Context) {
	studentID, _ := middleware.CurrentUserID(c)
	courses, err := h.enrollments.EnrolledCourses(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", courses)
}

func (h *EnrollmentController) Students(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.access.managedCourse(c, courseID); !ok {
		return
	}
	students, err := h.enrollments.EnrolledStudents(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", students)
}

func (h *EnrollmentController) Stats(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.access.managedCourse(c, courseID); !ok {
		return
	}
	stats, err := h.enrollments.CourseStats(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", stats)
}

// ExportRoster streams the course roster as an xlsx attachment.
func (h *EnrollmentController) ExportRoster(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	course, ok := h.access.managedCourse(c, courseID)
	if !ok {
		return
	}
	f, err := h.enrollments.ExportRoster(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	name := course.Slug
	if name == "" {
		name = fmt.Sprintf("course-%d", course.ID)
	}
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-roster.xlsx"`, name))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("write roster of course %d: %v", courseID, err)
	}
}
