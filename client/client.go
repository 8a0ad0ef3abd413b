// Package client talks to the pharmacoach REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"pharmacoach/assessment"
	"pharmacoach/models"
)

var (
	ErrNetwork  = errors.New("server unreachable")
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx answer other than 404.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	User    *models.User    `json:"user"`
	Token   string          `json:"token"`
}

type Client struct {
	http  *resty.Client
	token string
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:3000.
// Requests are not retried.
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	env := new(envelope)
	var decodeErr error
	if len(resp.Body()) > 0 {
		decodeErr = json.Unmarshal(resp.Body(), env)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.IsError():
		// proxies answer with HTML; keep the status and drop the body
		if decodeErr != nil {
			return nil, &APIError{Status: resp.StatusCode()}
		}
		apiErr := &APIError{Status: resp.StatusCode(), Message: env.Message}
		if resp.StatusCode() == http.StatusUnprocessableEntity {
			_ = json.Unmarshal(env.Data, &apiErr.Fields)
		}
		return env, apiErr
	case decodeErr != nil:
		return nil, fmt.Errorf("decoding %s %s: %w", method, path, decodeErr)
	}
	return env, nil
}

func decodeData[T any](env *envelope) (T, error) {
	var v T
	if env == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, fmt.Errorf("decoding response data: %w", err)
	}
	return v, nil
}

// Login authenticates and keeps the session token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return models.User{}, err
	}
	if env.Token == "" || env.User == nil {
		return models.User{}, &APIError{Status: http.StatusUnauthorized, Message: env.Message}
	}
	c.token = env.Token
	return *env.User, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":            name,
		"email":           email,
		"password":        password,
		"confirmPassword": password,
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	c.token = ""
	return err
}

func (c *Client) Courses(ctx context.Context) ([]models.Course, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/courses", nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.Course](env)
}

// Tests lists tests, optionally for one course.
func (c *Client) Tests(ctx context.Context, courseID string) ([]models.TestItem, error) {
	path := "/api/tests"
	if courseID != "" {
		path += "?courseId=" + url.QueryEscape(courseID)
	}
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.TestItem](env)
}

func (c *Client) Results(ctx context.Context) ([]models.TestResult, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/results", nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.TestResult](env)
}

func (c *Client) StartAttempt(ctx context.Context, testID string) (assessment.Snapshot, error) {
	return c.attempt(ctx, http.MethodPost, "/api/attempts", map[string]string{"testId": testID})
}

func (c *Client) Attempt(ctx context.Context, attemptID string) (assessment.Snapshot, error) {
	return c.attempt(ctx, http.MethodGet, "/api/attempts/"+url.PathEscape(attemptID), nil)
}

func (c *Client) Answer(ctx context.Context, attemptID string, question, option int) (assessment.Snapshot, error) {
	return c.attempt(ctx, http.MethodPut, "/api/attempts/"+url.PathEscape(attemptID)+"/answers", map[string]int{
		"questionIndex": question,
		"optionIndex":   option,
	})
}

func (c *Client) Navigate(ctx context.Context, attemptID string, delta int) (assessment.Snapshot, error) {
	return c.attempt(ctx, http.MethodPost, "/api/attempts/"+url.PathEscape(attemptID)+"/navigate", map[string]int{"delta": delta})
}

// Submit ends the attempt. A 409 for an attempt the timer already submitted still
// carries the final snapshot, which is returned together with the error.
func (c *Client) Submit(ctx context.Context, attemptID string) (assessment.Snapshot, error) {
	return c.attempt(ctx, http.MethodPost, "/api/attempts/"+url.PathEscape(attemptID)+"/submit", nil)
}

func (c *Client) attempt(ctx context.Context, method, path string, body any) (assessment.Snapshot, error) {
	env, err := c.do(ctx, method, path, body)
	if env == nil {
		return assessment.Snapshot{}, err
	}
	snap, decodeErr := decodeData[assessment.Snapshot](env)
	if err != nil {
		return snap, err
	}
	return snap, decodeErr
}
