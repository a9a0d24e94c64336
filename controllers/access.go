package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

// access holds the ownership and enrollment checks the API layer runs
// before calling the engines. Each check answers 403/404 itself and
// returns false when the request must stop.
type access struct {
	catalog     *services.CatalogService
	enrollments *services.EnrollmentService
}

func newAccess(catalog *services.CatalogService, enrollments *services.EnrollmentService) *access {
	return &access{catalog: catalog, enrollments: enrollments}
}

// canViewCourse admits the course manager or an enrolled student.
func (a *access) canViewCourse(c *gin.Context, courseID uint) bool {
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)
	_, err := a.catalog.ManagedCourse(ctx, actor, courseID)
	if err == nil {
		return true
	}
	if !errors.Is(err, services.ErrUnauthorized) {
		respondAccess(c, err)
		return false
	}
	if actor.Role == models.RoleStudent {
		enrolled, err := a.enrollments.IsEnrolled(ctx, courseID, actor.ID)
		if err != nil {
			respondError(c, err)
			return false
		}
		if enrolled {
			return true
		}
	}
	utils.FailWithStatus(c, http.StatusForbidden, services.ErrNotEnrolled.Error())
	return false
}

// managedCourse loads a course the caller may modify.
func (a *access) managedCourse(c *gin.Context, courseID uint) (*models.Course, bool) {
	course, err := a.catalog.ManagedCourse(c.Request.Context(), middleware.CurrentActor(c), courseID)
	if err != nil {
		respondAccess(c, err)
		return nil, false
	}
	return course, true
}

// managedLesson loads a lesson whose course the caller may modify.
func (a *access) managedLesson(c *gin.Context, lessonID uint) (*models.Lesson, bool) {
	lesson, err := a.catalog.ManagedLesson(c.Request.Context(), middleware.CurrentActor(c), lessonID)
	if err != nil {
		respondAccess(c, err)
		return nil, false
	}
	return lesson, true
}

// studentLesson loads the lesson and the caller's enrollment in the
// lesson's own course, so progress is only ever recorded against a
// matching enrollment.
func (a *access) studentLesson(c *gin.Context, lessonID uint) (*models.Lesson, *models.Enrollment, bool) {
	ctx := c.Request.Context()
	lesson, err := a.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		respondAccess(c, err)
		return nil, nil, false
	}
	studentID, _ := middleware.CurrentUserID(c)
	enrollment, err := a.enrollments.FindEnrollment(ctx, lesson.CourseID, studentID)
	if err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			utils.FailWithStatus(c, http.StatusForbidden, err.Error())
			return nil, nil, false
		}
		respondError(c, err)
		return nil, nil, false
	}
	return lesson, enrollment, true
}
