package enrollment

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacoach/database"
	"pharmacoach/models"
)

type courseMap map[string]models.Course

func (m courseMap) Find(_ context.Context, id string) (models.Course, bool) {
	c, ok := m[id]
	return c, ok
}

func newStore(t *testing.T) *database.JSONStore {
	t.Helper()
	store, err := database.OpenJSONStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createStudent(t *testing.T, store database.Store, email string) models.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), models.User{
		Email: email, Password: "pw", Role: models.RoleStudent, Status: models.StatusApproved,
	})
	require.NoError(t, err)
	return u
}

func TestAssign_DaysResolution(t *testing.T) {
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	courses := courseMap{"gpat": {ID: "gpat", ValidityDays: 180}, "free": {ID: "free"}}

	seven := 7
	tests := []struct {
		name     string
		courseID string
		override *int
		want     time.Time
	}{
		{"override wins", "gpat", &seven, clock.AddDate(0, 0, 7)},
		{"course validity", "gpat", nil, clock.AddDate(0, 0, 180)},
		{"course without validity uses default", "free", nil, clock.AddDate(0, 0, 365)},
		{"unknown course uses default", "mystery", nil, clock.AddDate(0, 0, 365)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			u := createStudent(t, store, "s@example.com")
			svc := NewService(store, courses, 365).WithClock(func() time.Time { return clock })

			updated, err := svc.Assign(context.Background(), tt.courseID, []string{u.ID}, tt.override)
			require.NoError(t, err)
			require.Len(t, updated, 1)
			assert.True(t, tt.want.Equal(updated[0].CourseExpiry[tt.courseID]))
			assert.Equal(t, []string{tt.courseID}, []string(updated[0].EnrolledCourses))
		})
	}
}

func TestAssign_RenewalRefreshesWithoutDuplicates(t *testing.T) {
	store := newStore(t)
	u := createStudent(t, store, "s@example.com")

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, courseMap{}, 30).WithClock(func() time.Time { return clock })

	_, err := svc.Assign(context.Background(), "gpat", []string{u.ID}, nil)
	require.NoError(t, err)

	clock = clock.AddDate(0, 0, 20)
	_, err = svc.Assign(context.Background(), "gpat", []string{u.ID}, nil)
	require.NoError(t, err)

	got, err := store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"gpat"}, []string(got.EnrolledCourses))
	assert.True(t, clock.AddDate(0, 0, 30).Equal(got.CourseExpiry["gpat"]))
}

func TestAssign_UnknownStudentWritesNothing(t *testing.T) {
	store := newStore(t)
	u := createStudent(t, store, "s@example.com")
	svc := NewService(store, courseMap{}, 30)

	_, err := svc.Assign(context.Background(), "gpat", []string{u.ID, "ghost"}, nil)
	assert.ErrorIs(t, err, database.ErrNotFound)

	got, err := store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.EnrolledCourses)
	assert.Empty(t, got.CourseExpiry)
}

func TestAssign_KeepsOtherCourses(t *testing.T) {
	store := newStore(t)
	u := createStudent(t, store, "s@example.com")
	svc := NewService(store, courseMap{}, 30)

	_, err := svc.Assign(context.Background(), "gpat", []string{u.ID}, nil)
	require.NoError(t, err)
	updated, err := svc.Assign(context.Background(), "niper", []string{u.ID, u.ID}, nil)
	require.NoError(t, err)
	require.Len(t, updated, 1)

	assert.ElementsMatch(t, []string{"gpat", "niper"}, []string(updated[0].EnrolledCourses))
	assert.Len(t, updated[0].CourseExpiry, 2)
}

func TestAssign_Rejects(t *testing.T) {
	svc := NewService(newStore(t), courseMap{}, 30)

	_, err := svc.Assign(context.Background(), "gpat", nil, nil)
	assert.ErrorIs(t, err, ErrNoStudents)

	zero := 0
	_, err = svc.Assign(context.Background(), "gpat", []string{"x"}, &zero)
	assert.ErrorIs(t, err, ErrInvalidDays)
}

func TestAssign_ConcurrentCoursesAreAllKept(t *testing.T) {
	courseIDs := []string{"gpat", "niper", "drug-inspector", "pharmacist", "dpee"}
	for run := 0; run < 20; run++ {
		store := newStore(t)
		u := createStudent(t, store, "s@example.com")
		svc := NewService(store, courseMap{}, 30)

		var wg sync.WaitGroup
		errs := make(chan error, len(courseIDs))
		for _, id := range courseIDs {
			wg.Add(1)
			go func(courseID string) {
				defer wg.Done()
				_, err := svc.Assign(context.Background(), courseID, []string{u.ID}, nil)
				errs <- err
			}(id)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := store.GetUser(context.Background(), u.ID)
		require.NoError(t, err)
		require.ElementsMatch(t, courseIDs, []string(got.EnrolledCourses), "run %d", run)
		require.Len(t, got.CourseExpiry, len(courseIDs), "run %d", run)
	}
}
