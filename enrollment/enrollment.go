// Package enrollment grants students time-boxed access to courses.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pharmacoach/database"
	"pharmacoach/models"
)

var (
	ErrNoStudents  = errors.New("at least one student is required")
	ErrInvalidDays = errors.New("validity days must be positive")
)

// UserStore is the part of the record store Assign needs.
type UserStore interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	EnrollUser(ctx context.Context, id, courseID string, expiresAt time.Time) (models.User, error)
}

// CourseLookup resolves a course from the catalog.
type CourseLookup interface {
	Find(ctx context.Context, id string) (models.Course, bool)
}

type Service struct {
	users       UserStore
	courses     CourseLookup
	defaultDays int
	now         func() time.Time
}

func NewService(users UserStore, courses CourseLookup, defaultDays int) *Service {
	if defaultDays <= 0 {
		defaultDays = 365
	}
	return &Service{users: users, courses: courses, defaultDays: defaultDays, now: time.Now}
}

// WithClock replaces the clock used to compute expiry.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.now = clock
	return s
}

// Days resolves the validity period: override, then the course's own validity, then the default.
func (s *Service) Days(ctx context.Context, courseID string, override *int) int {
	if override != nil {
		return *override
	}
	if s.courses != nil {
		if course, ok := s.courses.Find(ctx, courseID); ok && course.ValidityDays > 0 {
			return course.ValidityDays
		}
	}
	return s.defaultDays
}

// Assign enrolls every student in courseID and sets the course to expire after the resolved number
// of days. Membership is idempotent; expiry is always refreshed. All students are looked up before
// anything is written, so an unknown id leaves every record untouched.
func (s *Service) Assign(ctx context.Context, courseID string, studentIDs []string, override *int) ([]models.User, error) {
	if len(studentIDs) == 0 {
		return nil, ErrNoStudents
	}
	if override != nil && *override <= 0 {
		return nil, ErrInvalidDays
	}

	students := make([]models.User, 0, len(studentIDs))
	seen := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := s.users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, fmt.Errorf("student %s: %w", id, database.ErrNotFound)
			}
			return nil, err
		}
		students = append(students, u)
	}

	days := s.Days(ctx, courseID, override)
	expiresAt := s.now().UTC().AddDate(0, 0, days)

	// the merge happens inside the store write, so concurrent assigns of other courses are kept
	updated := make([]models.User, 0, len(students))
	for _, u := range students {
		enrolled, err := s.users.EnrollUser(ctx, u.ID, courseID, expiresAt)
		if err != nil {
			return updated, fmt.Errorf("assigning %s to %s: %w", courseID, u.ID, err)
		}
		updated = append(updated, enrolled)
	}

	slog.Info("course assigned", "course", courseID, "students", len(updated), "days", days, "expiresAt", expiresAt)
	return updated, nil
}
