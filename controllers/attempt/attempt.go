package attemptController

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pharmacoach/access"
	"pharmacoach/assessment"
	"pharmacoach/middleware"
	attemptValidator "pharmacoach/validators/attempt"
)

type Controller struct {
	Attempts *assessment.Manager
}

// attemptError maps engine errors to responses; unknown errors go to the error handler.
func attemptError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, assessment.ErrTestNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Test not found!", nil)
	case errors.Is(err, assessment.ErrAttemptNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attempt not found!", nil)
	case errors.Is(err, assessment.ErrNotOwner):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This attempt belongs to another user.", nil)
	case errors.Is(err, access.ErrExpired):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your access to this course has expired.", nil)
	case errors.Is(err, assessment.ErrNotInProgress):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This attempt is no longer in progress.", nil)
	case errors.Is(err, assessment.ErrQuestionOutOfRange):
		return middleware.ValidationErrorResponse(c, map[string]string{"questionIndex": "question does not exist"})
	}
	return err
}

func (ctl *Controller) attempt(c *fiber.Ctx) (*assessment.Attempt, error) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return ctl.Attempts.Get(c.Params("id"), session.User.ID)
}

// Start begins a timed attempt. Expired course access is refused with 403.
func (ctl *Controller) Start(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedStart").(*attemptValidator.StartRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	a, err := ctl.Attempts.Start(c.UserContext(), session.User, reqData.TestID)
	if err != nil {
		return attemptError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Test started. Good luck!", a.Snapshot())
}

func (ctl *Controller) Get(c *fiber.Ctx) error {
	a, err := ctl.attempt(c)
	if err != nil {
		return attemptError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt fetched successfully!", a.Snapshot())
}

func (ctl *Controller) SelectAnswer(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAnswer").(*attemptValidator.AnswerRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	a, err := ctl.attempt(c)
	if err != nil {
		return attemptError(c, err)
	}
	if err := a.SelectAnswer(*reqData.QuestionIndex, *reqData.OptionIndex); err != nil {
		return attemptError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Answer saved.", a.Snapshot())
}

func (ctl *Controller) Navigate(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedNavigate").(*attemptValidator.NavigateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	a, err := ctl.attempt(c)
	if err != nil {
		return attemptError(c, err)
	}
	if _, err := a.Navigate(*reqData.Delta); err != nil {
		return attemptError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Moved.", a.Snapshot())
}

// Submit scores the attempt. A repeated submit answers 409 with the first result.
func (ctl *Controller) Submit(c *fiber.Ctx) error {
	a, err := ctl.attempt(c)
	if err != nil {
		return attemptError(c, err)
	}

	_, err = a.Submit(c.UserContext())
	switch {
	case errors.Is(err, assessment.ErrAlreadySubmitted):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This attempt was already submitted.", a.Snapshot())
	case err != nil:
		return attemptError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test submitted!", a.Snapshot())
}
