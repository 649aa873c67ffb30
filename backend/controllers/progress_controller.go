package controllers

import (
	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Progress *services.ProgressService
	Cfg      *config.Config
}

func NewProgressController(progress *services.ProgressService, cfg *config.Config) *ProgressController {
	return &ProgressController{Progress: progress, Cfg: cfg}
}

// GetProgress returns the raw completion records, oldest first.
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID, err := currentUser(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	records, err := pc.Progress.UserProgress(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, records)
}

// GetProgressOverview godoc
// @Summary Get progress overview
// @Description Returns overall and per-course progress
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/overview [get]
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	userID, err := currentUser(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	overview, err := pc.Progress.OverallProgress(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, overview)
}

// GetActivity godoc
// @Summary Get monthly activity
// @Description Returns lessons, courses, streak and logins for the last months (default 4)
// @Tags progress
// @Produce json
// @Param months query int false "Number of months"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /progress/activity [get]
func (pc *ProgressController) GetActivity(c *fiber.Ctx) error {
	userID, err := currentUser(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	months := c.QueryInt("months", 4)
	if months < 1 || months > 24 {
		return utils.BadRequest(c, "months must be between 1 and 24")
	}

	activity, err := pc.Progress.MonthlyActivity(c.UserContext(), userID, months)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, activity)
}
