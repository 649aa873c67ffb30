package controllers

import (
	"errors"
	"strconv"

	"capdigital/backend/config"
	"capdigital/backend/middleware"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// currentUser prefers the id stored by AuthMiddleware and falls back to
// parsing the token for handlers mounted without it.
func currentUser(c *fiber.Ctx, cfg *config.Config) (uuid.UUID, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return utils.ExtractUserIDFromToken(c, cfg)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(n), nil
}

// serviceError maps service sentinels to HTTP statuses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return utils.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrLessonNotFound):
		return utils.NotFound(c, "Lesson not found")
	case errors.Is(err, services.ErrUserNotFound):
		return utils.NotFound(c, "User not found")
	case errors.Is(err, services.ErrEmailTaken):
		return utils.Conflict(c, "Email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, services.ErrPasswordTooLong):
		return utils.ValidationError(c, map[string]string{"password": "max=72"})
	case errors.Is(err, services.ErrWrongPassword):
		return utils.BadRequest(c, "Current password is incorrect")
	default:
		return utils.InternalServerError(c, "Internal server error")
	}
}
