package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/workflow-api/internal/middleware"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/internal/repository"
	"github.com/hanbit-edu/workflow-api/internal/service"
)

// Registry bundles everything route registration needs.
type Registry struct {
	Educations   *EducationHandler
	Assignments  *AssignmentHandler
	Applications *ApplicationHandler
	Attendance   *AttendanceHandler
	Settlements  *SettlementHandler
	Metrics      *MetricsHandler

	Tokens *service.TokenService
	Audits *repository.AuditRepository
}

// RegisterRoutes mounts the API under /api/v1. The metrics endpoint stays
// outside the JWT guard so scrapers do not need workflow tokens.
func RegisterRoutes(router *gin.Engine, r Registry) {
	router.GET("/metrics", r.Metrics.Prometheus)
	// Download auth is the signed token itself; result links must work
	// without re-attaching the JWT.
	router.GET("/api/v1/settlements/:id/download", r.Settlements.Download)

	api := router.Group("/api/v1")
	api.Use(middleware.JWT(r.Tokens))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleSchoolTeacher)
	instructors := middleware.RequireRoles(models.RoleInstructor)

	educations := api.Group("/educations")
	{
		educations.GET("", r.Educations.List)
		educations.GET("/:id", r.Educations.Get)
		educations.GET("/:id/fee", admin, r.Educations.Fee)
		educations.POST("", admin, middleware.Audit(r.Audits, models.AuditActionCreate, "education"), r.Educations.Create)
		educations.POST("/:id/transition", admin, middleware.Audit(r.Audits, models.AuditActionTransition, "education"), r.Educations.Transition)
		educations.POST("/:id/advance", admin, middleware.Audit(r.Audits, models.AuditActionTransition, "education"), r.Educations.Advance)
		educations.POST("/:id/activation", admin, middleware.Audit(r.Audits, models.AuditActionActivation, "education"), r.Educations.ScheduleActivation)

		educations.GET("/:id/assignments", r.Assignments.Overview)
		educations.POST("/:id/assignments", admin, middleware.Audit(r.Audits, models.AuditActionAssign, "assignment"), r.Assignments.Assign)
		educations.POST("/:id/assignments/confirm", admin, middleware.Audit(r.Audits, models.AuditActionConfirm, "assignment"), r.Assignments.Confirm)
		educations.DELETE("/:id/assignments", admin, middleware.Audit(r.Audits, models.AuditActionRemove, "assignment"), r.Assignments.Remove)
	}

	api.GET("/instructors/:id/assignments", r.Assignments.ListByInstructor)

	applicants := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	applications := api.Group("/applications")
	{
		applications.GET("", applicants, r.Applications.List)
		applications.GET("/:id", applicants, r.Applications.Get)
		applications.POST("", instructors, middleware.Audit(r.Audits, models.AuditActionApply, "application"), r.Applications.Apply)
		applications.POST("/:id/decision", admin, middleware.Audit(r.Audits, models.AuditActionDecide, "application"), r.Applications.Decide)
	}

	attendance := api.Group("/attendance")
	{
		attendance.GET("/:id", r.Attendance.Get)
		attendance.POST("/open", staff, r.Attendance.Open)
		attendance.POST("/:id/students", staff, r.Attendance.AddStudent)
		attendance.POST("/:id/ready", staff, middleware.Audit(r.Audits, models.AuditActionAttendanceChange, "attendance"), r.Attendance.MarkAsReady)
		attendance.POST("/:id/request", instructors, middleware.Audit(r.Audits, models.AuditActionAttendanceChange, "attendance"), r.Attendance.RequestFromInstructor)
		attendance.POST("/:id/send", staff, middleware.Audit(r.Audits, models.AuditActionAttendanceChange, "attendance"), r.Attendance.SendToInstructor)
		attendance.POST("/:id/return", admin, middleware.Audit(r.Audits, models.AuditActionAttendanceChange, "attendance"), r.Attendance.ReturnToTeacher)
		attendance.POST("/:id/finalize", admin, middleware.Audit(r.Audits, models.AuditActionAttendanceChange, "attendance"), r.Attendance.Finalize)
		attendance.GET("/:id/roster", r.Attendance.ExportRoster)
	}

	settlements := api.Group("/settlements")
	{
		settlements.POST("", admin, middleware.Audit(r.Audits, models.AuditActionSettlement, "settlement"), r.Settlements.Create)
		settlements.GET("/:id", admin, r.Settlements.Get)
	}
}
