// Package access decides whether a student may still use a course's tests and resources.
package access

import (
	"errors"
	"sort"
	"time"

	"github.com/jinzhu/now"

	"pharmacoach/models"
)

// ErrExpired is returned when a course's access window has passed.
var ErrExpired = errors.New("course access has expired")

// IsExpired reports whether user's access to courseID ended strictly before t.
// A course without an expiry entry never expires.
func IsExpired(courseID string, user models.User, t time.Time) bool {
	expiry, ok := user.CourseExpiry[courseID]
	if !ok {
		return false
	}
	return expiry.Before(t)
}

// Expiring pairs a course with the moment access to it ends.
type Expiring struct {
	CourseID  string
	ExpiresAt time.Time
}

// ExpiringBetween lists the user's courses whose expiry falls in [from, to), soonest first.
func ExpiringBetween(user models.User, from, to time.Time) []Expiring {
	var out []Expiring
	for courseID, expiry := range user.CourseExpiry {
		if !expiry.Before(from) && expiry.Before(to) {
			out = append(out, Expiring{CourseID: courseID, ExpiresAt: expiry})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

// ReminderWindow returns the whole day that lies days ahead of t.
func ReminderWindow(t time.Time, days int) (time.Time, time.Time) {
	day := now.With(t.AddDate(0, 0, days))
	return day.BeginningOfDay(), day.EndOfDay().Add(time.Nanosecond)
}

// Gate applies IsExpired with a clock; admins always pass.
type Gate struct {
	Now func() time.Time
}

func NewGate(clock func() time.Time) *Gate {
	if clock == nil {
		clock = time.Now
	}
	return &Gate{Now: clock}
}

// Allow returns ErrExpired when user may no longer use courseID.
func (g *Gate) Allow(user models.User, courseID string) error {
	if user.IsAdmin() {
		return nil
	}
	if IsExpired(courseID, user, g.Now()) {
		return ErrExpired
	}
	return nil
}

// FilterResources keeps the resources user may see.
func (g *Gate) FilterResources(user models.User, resources []models.CourseResource) []models.CourseResource {
	if user.IsAdmin() {
		return resources
	}
	t := g.Now()
	visible := make([]models.CourseResource, 0, len(resources))
	for _, r := range resources {
		if !IsExpired(r.CourseID, user, t) {
			visible = append(visible, r)
		}
	}
	return visible
}
