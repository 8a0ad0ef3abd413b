package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/access"
	"pharmacoach/authoring"
	"pharmacoach/catalog"
	"pharmacoach/enrollment"
	"pharmacoach/middleware"
	"pharmacoach/utils"
	courseValidator "pharmacoach/validators/course"
)

// Controller serves courses, tests, resources, results, enrollment and test authoring.
type Controller struct {
	Catalog    *catalog.Catalog
	Enrollment *enrollment.Service
	Gate       *access.Gate
	Drafts     *authoring.DraftBook
	Emails     *utils.EmailService
}

func (ctl *Controller) ListCourses(c *fiber.Ctx) error {
	courses := ctl.Catalog.List(c.UserContext())
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", courses)
}

func (ctl *Controller) GetCourse(c *fiber.Ctx) error {
	course, ok := ctl.Catalog.Find(c.UserContext(), c.Params("id"))
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}

// SaveCourse creates or replaces a course in the stored catalog.
func (ctl *Controller) SaveCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	course, err := ctl.Catalog.Save(c.UserContext(), reqData.Course(c.Params("id")))
	if err != nil {
		return fmt.Errorf("saving course: %w", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course saved successfully!", course)
}
