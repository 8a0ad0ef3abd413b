package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pharmacoach/models"
)

func TestIsExpired(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	user := models.User{CourseExpiry: map[string]time.Time{"gpat": base}}

	tests := []struct {
		name     string
		courseID string
		now      time.Time
		want     bool
	}{
		{"no entry never expires", "niper", base.AddDate(10, 0, 0), false},
		{"before expiry", "gpat", base.Add(-time.Second), false},
		{"exactly at expiry", "gpat", base, false},
		{"after expiry", "gpat", base.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(tt.courseID, user, tt.now))
		})
	}
}

func TestIsExpired_NilMap(t *testing.T) {
	assert.False(t, IsExpired("gpat", models.User{}, time.Now()))
}

func TestGate(t *testing.T) {
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	gate := NewGate(func() time.Time { return clock })

	student := models.User{Role: models.RoleStudent, CourseExpiry: map[string]time.Time{
		"gpat":  clock.Add(-time.Hour),
		"niper": clock.Add(time.Hour),
	}}
	admin := student
	admin.Role = models.RoleAdmin

	assert.ErrorIs(t, gate.Allow(student, "gpat"), ErrExpired)
	assert.NoError(t, gate.Allow(student, "niper"))
	assert.NoError(t, gate.Allow(admin, "gpat"))

	resources := []models.CourseResource{
		{ID: "r1", CourseID: "gpat"},
		{ID: "r2", CourseID: "niper"},
		{ID: "r3", CourseID: "dpee"},
	}
	visible := gate.FilterResources(student, resources)
	assert.Equal(t, []models.CourseResource{{ID: "r2", CourseID: "niper"}, {ID: "r3", CourseID: "dpee"}}, visible)
	assert.Len(t, gate.FilterResources(admin, resources), 3)
}

func TestExpiringBetween(t *testing.T) {
	from := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	user := models.User{CourseExpiry: map[string]time.Time{
		"gpat":  from.Add(18 * time.Hour),
		"niper": from.Add(2 * time.Hour),
		"dpee":  to,
		"old":   from.Add(-time.Minute),
	}}

	got := ExpiringBetween(user, from, to)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "niper", got[0].CourseID)
		assert.Equal(t, "gpat", got[1].CourseID)
	}
}

func TestReminderWindow(t *testing.T) {
	at := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	from, to := ReminderWindow(at, 2)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), to)
}
