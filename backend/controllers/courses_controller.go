package controllers

import (
	"errors"
	"strconv"

	"capdigital/backend/config"
	"capdigital/backend/services"
	"capdigital/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Progress *services.ProgressService
	Catalog  *services.CatalogService
	Cfg      *config.Config
}

func NewCoursesController(progress *services.ProgressService, catalog *services.CatalogService, cfg *config.Config) *CoursesController {
	return &CoursesController{Progress: progress, Catalog: catalog, Cfg: cfg}
}

// GetUserCourses returns the catalog in order with progress and lock state.
func (cc *CoursesController) GetUserCourses(c *fiber.Ctx) error {
	userID, err := currentUser(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	list, err := cc.Progress.CourseProgressList(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (cc *CoursesController) GetNextCourse(c *fiber.Ctx) error {
	userID, err := currentUser(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	next, err := cc.Progress.NextAvailableCourse(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	if next == nil {
		return utils.Message(c, fiber.StatusOK, "All courses completed", nil)
	}
	return utils.Success(c, fiber.StatusOK, next)
}

// GetCourseDetails returns the course, its progress and the lesson status list.
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	userID, err := currentUser(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	ctx := c.UserContext()

	course, err := cc.Catalog.Course(ctx, courseID)
	if err != nil {
		return serviceError(c, err)
	}
	progress, err := cc.Progress.CourseProgress(ctx, userID, courseID)
	if err != nil {
		return serviceError(c, err)
	}
	unlocked, err := cc.Progress.IsCourseUnlocked(ctx, userID, courseID)
	if err != nil && !errors.Is(err, services.ErrCourseNotFound) {
		return serviceError(c, err)
	}
	lessons, err := cc.Progress.AvailableLessons(ctx, userID, courseID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course":   course,
		"progress": progress,
		"unlocked": unlocked,
		"lessons":  lessons,
	})
}

func (cc *CoursesController) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := currentUser(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	progress, err := cc.Progress.CourseProgress(c.UserContext(), userID, courseID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id": courseID,
		"progress":  progress,
		"completed": progress == 100,
	})
}

// CompleteLesson godoc
// @Summary Complete a lesson by its position in the course
// @Description Records the lesson as completed; repeating the call is harmless
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Param order path int true "Lesson position, starting at 1"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/lessons/{order}/complete [post]
func (cc *CoursesController) CompleteLesson(c *fiber.Ctx) error {
	userID, err := currentUser(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	ordinal, err := strconv.Atoi(c.Params("order"))
	if err != nil || ordinal < 1 {
		return utils.BadRequest(c, "Invalid lesson number")
	}

	result, err := cc.Progress.CompleteLessonByCourse(c.UserContext(), userID, courseID, ordinal)
	if err != nil {
		return serviceError(c, err)
	}
	return completionResponse(c, result)
}

func completionResponse(c *fiber.Ctx, result *services.CompletionResult) error {
	message := "Lesson completed"
	if result.AlreadyCompleted {
		message = "Lesson already completed"
	}
	return utils.Message(c, fiber.StatusOK, message, result)
}
