package controllers

import (
	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Auth         *services.AuthService
	Progress     *services.ProgressService
	Achievements *services.AchievementService
	Cfg          *config.Config
}

func NewUserController(auth *services.AuthService, progress *services.ProgressService, achievements *services.AchievementService, cfg *config.Config) *UserController {
	return &UserController{Auth: auth, Progress: progress, Achievements: achievements, Cfg: cfg}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72,nefield=CurrentPassword"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the user, their stats and most recent achievements
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	ctx := c.UserContext()

	user, err := uc.Auth.GetUser(ctx, userID)
	if err != nil {
		return serviceError(c, err)
	}
	stats, err := uc.Progress.UserStats(ctx, userID)
	if err != nil {
		return serviceError(c, err)
	}
	recent, err := uc.Achievements.RecentAchievements(ctx, userID, 0)
	if err != nil {
		return serviceError(c, err)
	}

	// Формируем ответ без чувствительных данных
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user":                userPayload(user),
		"stats":               stats,
		"recent_achievements": recent,
	})
}

// ChangePassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param input body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/password [put]
func (uc *UserController) ChangePassword(c *fiber.Ctx) error {
	userID, err := currentUser(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input ChangePasswordRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	if err := uc.Auth.ChangePassword(c.UserContext(), userID, input.CurrentPassword, input.NewPassword); err != nil {
		return serviceError(c, err)
	}
	return utils.Message(c, fiber.StatusOK, "Password updated", nil)
}
