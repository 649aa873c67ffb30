package controllers

import (
	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsController serves the admin endpoints.
type AnalyticsController struct {
	Progress *services.ProgressService
	Repair   *services.RepairService
	Cfg      *config.Config
}

func NewAnalyticsController(progress *services.ProgressService, repair *services.RepairService, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{Progress: progress, Repair: repair, Cfg: cfg}
}

func (ac *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	analytics, err := ac.Progress.CourseAnalytics(c.UserContext(), courseID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, analytics)
}

func (ac *AnalyticsController) AuditCatalog(c *fiber.Ctx) error {
	audit, err := ac.Repair.AuditCatalog(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, audit, fiber.Map{"drifted": audit.Drifted()})
}

func (ac *AnalyticsController) SyncLessonCounts(c *fiber.Ctx) error {
	changed, err := ac.Repair.SyncLessonCounts(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	if changed == nil {
		changed = []services.CourseAudit{}
	}
	return utils.Success(c, fiber.StatusOK, changed)
}
