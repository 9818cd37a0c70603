package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/config"
	"github.com/zaqqye/institute_backend/internal/controllers"
	"github.com/zaqqye/institute_backend/internal/metrics"
	"github.com/zaqqye/institute_backend/internal/middleware"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/storage"
	"github.com/zaqqye/institute_backend/internal/store"
	"github.com/zaqqye/institute_backend/internal/ws"
)

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			cc.AllowCredentials = false
		}
	}
	if !cc.AllowAllOrigins {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, hubs *ws.Hubs, files *storage.LocalStorage) {
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}

	var dashboard *ws.DashboardHub
	if hubs != nil {
		dashboard = hubs.Dashboard
	}

	// Controllers
	authCtrl := &controllers.AuthController{
		DB:            db,
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshJWTSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	}
	adminCtrl := &controllers.AdminController{DB: db}
	studentCtrl := &controllers.StudentController{Store: store.NewStudentStore(db), Files: files, Hub: dashboard}
	courseCtrl := &controllers.CourseController{DB: db}
	workshopCtrl := &controllers.WorkshopController{DB: db}
	directorCtrl := &controllers.DirectorController{DB: db}
	directorCtrl.Files = files
	employeeCtrl := &controllers.EmployeeController{DB: db}
	employeeCtrl.Files = files
	contactCtrl := &controllers.ContactController{DB: db}
	cfgCtrl := &controllers.ConfigController{Cfg: cfg}

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if files != nil {
		r.Static("/uploads", files.BasePath())
	}

	// Public
	r.POST("/api/v1/auth/login", authCtrl.Login)
	r.POST("/api/v1/auth/refresh", authCtrl.Refresh)
	r.GET("/api/v1/config/public", cfgCtrl.Public)
	r.POST("/api/v1/contact", contactCtrl.Submit)
	r.GET("/api/v1/courses", courseCtrl.ListCourses)
	r.GET("/api/v1/courses/:id", courseCtrl.GetCourse)
	r.GET("/api/v1/workshops", workshopCtrl.ListWorkshops)
	r.GET("/api/v1/workshops/:id", workshopCtrl.GetWorkshop)

	// Protected
	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{JWTSecret: cfg.JWTSecret})
	r.GET("/ws/dashboard", authMW, ws.DashboardHandler(dashboard))

	api := r.Group("/api/v1", authMW)
	{
		api.GET("/auth/me", authCtrl.Me)
		api.POST("/auth/logout", authCtrl.Logout)

		readers := middleware.RequireRoles(models.RoleDirector, models.RoleAuditor)
		writers := middleware.RequireRoles(models.RoleDirector)
		adminOnly := middleware.RequireRoles(models.RoleAdmin)

		students := api.Group("/students")
		{
			students.GET("", readers, studentCtrl.List)
			students.GET("/stats", readers, studentCtrl.Stats)
			students.GET("/:student_id", readers, studentCtrl.Get)
			students.POST("", writers, studentCtrl.Create)
			students.POST("/import", adminOnly, studentCtrl.Import)
			students.PUT("/:student_id", writers, studentCtrl.Update)
			students.PATCH("/:student_id/status", writers, studentCtrl.SetStatus)
			students.POST("/:student_id/enrollments", writers, studentCtrl.Enroll)
			students.PUT("/:student_id/enrollments/:course_id", writers, studentCtrl.UpdateEnrollment)
			students.POST("/:student_id/grades", writers, studentCtrl.AddGrade)
			students.DELETE("/:student_id", adminOnly, studentCtrl.Delete)
		}

		// Catalog writes
		api.POST("/courses", adminOnly, courseCtrl.CreateCourse)
		api.PUT("/courses/:id", adminOnly, courseCtrl.UpdateCourse)
		api.DELETE("/courses/:id", adminOnly, courseCtrl.DeleteCourse)
		api.POST("/workshops", adminOnly, workshopCtrl.CreateWorkshop)
		api.PUT("/workshops/:id", adminOnly, workshopCtrl.UpdateWorkshop)
		api.DELETE("/workshops/:id", adminOnly, workshopCtrl.DeleteWorkshop)

		// Admin-only
		admin := api.Group("", adminOnly)
		{
			admin.GET("/directors", directorCtrl.ListDirectors)
			admin.POST("/directors", directorCtrl.CreateDirector)
			admin.GET("/directors/:id", directorCtrl.GetDirector)
			admin.PUT("/directors/:id", directorCtrl.UpdateDirector)
			admin.DELETE("/directors/:id", directorCtrl.DeleteDirector)

			admin.GET("/employees", employeeCtrl.ListEmployees)
			admin.POST("/employees", employeeCtrl.CreateEmployee)
			admin.GET("/employees/:id", employeeCtrl.GetEmployee)
			admin.PUT("/employees/:id", employeeCtrl.UpdateEmployee)
			admin.DELETE("/employees/:id", employeeCtrl.DeleteEmployee)

			admin.GET("/contact", contactCtrl.ListMessages)
			admin.GET("/contact/:id", contactCtrl.GetMessage)
			admin.PATCH("/contact/:id/read", contactCtrl.MarkRead)
			admin.DELETE("/contact/:id", contactCtrl.DeleteMessage)

			admin.GET("/admin/users", adminCtrl.ListUsers)
			admin.POST("/admin/users", adminCtrl.CreateUser)
			admin.GET("/admin/users/:user_id", adminCtrl.GetUser)
			admin.PUT("/admin/users/:user_id", adminCtrl.UpdateUser)
			admin.DELETE("/admin/users/:user_id", adminCtrl.DeleteUser)
		}
	}
}
