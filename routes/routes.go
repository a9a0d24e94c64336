package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-learning-backend/controllers"
	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
	"github.com/vnkhanh/e-learning-backend/ws"
)

// Deps carries everything the handlers are built from.
type Deps struct {
	DB              *gorm.DB
	Hub             *ws.Hub
	Tokens          *utils.TokenIssuer
	Users           *services.UserService
	Catalog         *services.CatalogService
	Enrollments     *services.EnrollmentService
	Quiz            *services.QuizService
	Moderation      *services.ModerationService
	Recommendations *services.RecommendationClient
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	auth := middleware.NewAuth(d.Tokens, d.Users, d.Moderation)

	authCtl := controllers.NewAuthController(d.Users, d.Tokens)
	courseCtl := controllers.NewCourseController(d.Catalog, d.Enrollments)
	lessonCtl := controllers.NewLessonController(d.Catalog, d.Enrollments)
	quizCtl := controllers.NewQuizController(d.Quiz, d.Catalog, d.Enrollments)
	enrollCtl := controllers.NewEnrollmentController(d.Catalog, d.Enrollments)
	reportCtl := controllers.NewReportController(d.Moderation)
	adminCtl := controllers.NewAdminController(d.Users, d.Moderation)
	recCtl := controllers.NewRecommendationController(d.Recommendations)
	healthCtl := controllers.NewHealthController(d.DB, d.Hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", healthCtl.HealthCheck)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authCtl.Register)
		authGroup.POST("/login", authCtl.Login)
	}

	// Public catalog
	api.GET("/courses", courseCtl.ListPublished)
	api.GET("/courses/:id", auth.OptionalAuthMiddleware(), courseCtl.GetCourse)

	user := api.Group("")
	user.Use(auth.AuthMiddleware())
	{
		user.GET("/users/me", authCtl.Me)
		user.PUT("/users/me", authCtl.UpdateMe)

		user.GET("/courses/:id/lessons", courseCtl.ListLessons)
		user.GET("/courses/:id/messages", courseCtl.Messages)
		user.GET("/lessons/:id", lessonCtl.GetLesson)
		user.GET("/lessons/:id/questions", quizCtl.ListQuestions)

		user.GET("/recommendations", recCtl.Recommend)
		user.GET("/reports/mine", reportCtl.Mine)
		user.POST("/reports", auth.NotTimedOut(), reportCtl.Create)
	}

	student := api.Group("")
	student.Use(auth.RequireRoles(models.RoleStudent))
	{
		student.GET("/student/courses", enrollCtl.MyCourses)
		student.GET("/courses/:id/enrollment", enrollCtl.Status)
		student.GET("/courses/:id/progress", enrollCtl.Progress)

		student.POST("/courses/:id/enroll", auth.NotTimedOut(), enrollCtl.Enroll)
		student.DELETE("/courses/:id/enroll", auth.NotTimedOut(), enrollCtl.Unenroll)
		student.POST("/lessons/:id/complete", auth.NotTimedOut(), enrollCtl.CompleteLesson)
		student.POST("/lessons/:id/quiz/submit", auth.NotTimedOut(), quizCtl.Submit)
	}

	teaching := api.Group("")
	teaching.Use(auth.RequireRoles(models.RoleInstructor, models.RoleAdmin))
	{
		teaching.GET("/instructor/courses", courseCtl.MyCourses)
		teaching.POST("/courses", courseCtl.CreateCourse)
		teaching.PUT("/courses/:id", courseCtl.UpdateCourse)
		teaching.PATCH("/courses/:id/publish", courseCtl.Publish)
		teaching.DELETE("/courses/:id", courseCtl.DeleteCourse)
		teaching.POST("/courses/:id/thumbnail", courseCtl.UploadThumbnail)
		teaching.GET("/courses/:id/students", enrollCtl.Students)
		teaching.GET("/courses/:id/stats", enrollCtl.Stats)
		teaching.GET("/courses/:id/roster", enrollCtl.ExportRoster)
		teaching.POST("/courses/:id/messages", courseCtl.SendMessage)

		teaching.POST("/courses/:id/lessons", courseCtl.CreateLesson)
		teaching.PUT("/courses/:id/lessons/reorder", courseCtl.ReorderLessons)
		teaching.PUT("/lessons/:id", lessonCtl.UpdateLesson)
		teaching.DELETE("/lessons/:id", lessonCtl.DeleteLesson)

		teaching.POST("/lessons/:id/questions", quizCtl.CreateQuestion)
		teaching.POST("/lessons/:id/questions/generate", quizCtl.Generate)
		teaching.POST("/lessons/:id/questions/import", quizCtl.Import)
		teaching.PUT("/questions/:id", quizCtl.UpdateQuestion)
		teaching.DELETE("/questions/:id", quizCtl.DeleteQuestion)
		teaching.POST("/questions/:id/answers", quizCtl.CreateAnswer)
		teaching.PUT("/answers/:id", quizCtl.UpdateAnswer)
		teaching.DELETE("/answers/:id", quizCtl.DeleteAnswer)
	}

	admin := api.Group("/admin")
	admin.Use(auth.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", adminCtl.ListUsers)
		admin.GET("/users/:id/sanction", adminCtl.Sanction)
		admin.GET("/users/:id/reports", reportCtl.Against)
		admin.PUT("/users/:id/ban", adminCtl.Ban)
		admin.PUT("/users/:id/timeout", adminCtl.Timeout)
		admin.PUT("/users/:id/active", adminCtl.SetActive)

		admin.GET("/reports", reportCtl.Pending)
		admin.GET("/reports/:id", reportCtl.Get)
		admin.POST("/reports/:id/:action", reportCtl.Review)
	}

	r.GET("/ws/user", ws.HandleUserWebSocket(d.Hub, d.Tokens))

	return r
}
