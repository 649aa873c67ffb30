package controllers

import (
	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type LessonsController struct {
	Progress *services.ProgressService
	Catalog  *services.CatalogService
	Cfg      *config.Config
}

func NewLessonsController(progress *services.ProgressService, catalog *services.CatalogService, cfg *config.Config) *LessonsController {
	return &LessonsController{Progress: progress, Catalog: catalog, Cfg: cfg}
}

// GetLesson returns the lesson with its markdown content rendered to HTML.
func (lc *LessonsController) GetLesson(c *fiber.Ctx) error {
	if _, err := currentUser(c, lc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	lesson, err := lc.Catalog.Lesson(c.UserContext(), lessonID)
	if err != nil {
		return serviceError(c, err)
	}
	html, err := utils.RenderMarkdown(lesson.Content)
	if err != nil {
		return utils.InternalServerError(c, "Could not render lesson")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"lesson":       lesson,
		"content_html": html,
	})
}

func (lc *LessonsController) CompleteLesson(c *fiber.Ctx) error {
	userID, err := currentUser(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	result, err := lc.Progress.CompleteLesson(c.UserContext(), userID, lessonID)
	if err != nil {
		return serviceError(c, err)
	}
	return completionResponse(c, result)
}
