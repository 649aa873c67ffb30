package controllers

import (
	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type OverviewController struct {
	Catalog *services.CatalogService
	Cfg     *config.Config
}

func NewOverviewController(catalog *services.CatalogService, cfg *config.Config) *OverviewController {
	return &OverviewController{Catalog: catalog, Cfg: cfg}
}

// SearchCourses возвращает курсы по критериям поиска
func (oc *OverviewController) SearchCourses(c *fiber.Ctx) error {
	search := c.Query("search")
	difficulty := c.Query("difficulty")
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	courses, total, err := oc.Catalog.SearchCourses(c.UserContext(), search, difficulty, page, pageSize)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch courses")
	}

	// Формируем упрощенный ответ
	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":            course.ID,
			"title":         course.Title,
			"description":   course.Description,
			"difficulty":    course.Difficulty,
			"duration":      course.Duration,
			"lessons_count": course.LessonsCount,
			"icon":          course.Icon,
			"color":         course.Color,
		})
	}

	return utils.Paginate(c, result, total, page, pageSize)
}
