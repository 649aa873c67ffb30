package controllers

import (
	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AchievementsController struct {
	Achievements *services.AchievementService
	Cfg          *config.Config
}

func NewAchievementsController(achievements *services.AchievementService, cfg *config.Config) *AchievementsController {
	return &AchievementsController{Achievements: achievements, Cfg: cfg}
}

// GetAll lists every active achievement with the user's earned state.
func (ac *AchievementsController) GetAll(c *fiber.Ctx) error {
	userID, err := currentUser(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	all, err := ac.Achievements.AllWithStatus(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, all)
}

func (ac *AchievementsController) GetMine(c *fiber.Ctx) error {
	userID, err := currentUser(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	earned, err := ac.Achievements.UserAchievements(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, earned)
}

func (ac *AchievementsController) GetRecent(c *fiber.Ctx) error {
	userID, err := currentUser(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	recent, err := ac.Achievements.RecentAchievements(c.UserContext(), userID, c.QueryInt("limit", 3))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, recent)
}
