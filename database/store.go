package database

import (
	"context"
	"errors"
	"time"

	"pharmacoach/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email is already registered")
	ErrDuplicateID    = errors.New("a record with this id already exists")
)

// Store is the record store behind the REST layer. Implementations give
// read-your-writes visibility but no isolation between concurrent writers.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	// PatchUser merges patch into the stored user and returns the result.
	PatchUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	// EnrollUser adds courseID to the user's courses and sets its expiry in one write.
	EnrollUser(ctx context.Context, id, courseID string, expiresAt time.Time) (models.User, error)

	ListTests(ctx context.Context) ([]models.TestItem, error)
	GetTest(ctx context.Context, id string) (models.TestItem, error)
	// CreateTest returns ErrDuplicateID when a test with the same id exists.
	CreateTest(ctx context.Context, test models.TestItem) (models.TestItem, error)

	ListResources(ctx context.Context) ([]models.CourseResource, error)
	CreateResource(ctx context.Context, res models.CourseResource) (models.CourseResource, error)
	DeleteResource(ctx context.Context, id string) error

	ListResults(ctx context.Context) ([]models.TestResult, error)
	// SaveResult stores r, replacing any earlier result of the same (user, test) pair.
	SaveResult(ctx context.Context, r models.TestResult) error

	ListCourses(ctx context.Context) ([]models.Course, error)
	SaveCourse(ctx context.Context, course models.Course) (models.Course, error)

	Close() error
}
