package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/database"
	"pharmacoach/middleware"
	courseValidator "pharmacoach/validators/course"
)

// AssignCourse enrolls students in a course and mails each of them the new expiry.
func (ctl *Controller) AssignCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAssign").(*courseValidator.AssignRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	ctx := c.UserContext()

	updated, err := ctl.Enrollment.Assign(ctx, reqData.CourseID, reqData.StudentIDs, reqData.ValidityDays)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Student not found!", nil)
		}
		return fmt.Errorf("assigning course: %w", err)
	}

	title := reqData.CourseID
	if course, ok := ctl.Catalog.Find(ctx, reqData.CourseID); ok {
		title = course.Title
	}
	for i, u := range updated {
		ctl.Emails.SendEnrollmentEmail(u.Email, u.Name, title, u.CourseExpiry[reqData.CourseID])
		updated[i] = u.Sanitized()
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course assigned successfully!", updated)
}
