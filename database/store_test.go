package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacoach/config"
	"pharmacoach/models"
)

func strPtr(s string) *string { return &s }

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("empty lists are not nil", func(t *testing.T) {
		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.NotNil(t, users)
		tests, err := store.ListTests(ctx)
		require.NoError(t, err)
		assert.NotNil(t, tests)
		resources, err := store.ListResources(ctx)
		require.NoError(t, err)
		assert.NotNil(t, resources)
		results, err := store.ListResults(ctx)
		require.NoError(t, err)
		assert.NotNil(t, results)
		courses, err := store.ListCourses(ctx)
		require.NoError(t, err)
		assert.NotNil(t, courses)
	})

	t.Run("users", func(t *testing.T) {
		u, err := store.CreateUser(ctx, models.User{
			Name: "Asha", Email: "asha@example.com", Password: "pw",
			Role: models.RoleStudent, Status: models.StatusPending,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)

		_, err = store.CreateUser(ctx, models.User{Email: "ASHA@example.com", Password: "x", Role: models.RoleStudent, Status: models.StatusPending})
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		got, err := store.GetUserByEmail(ctx, "Asha@Example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		courses := []string{"gpat"}
		patched, err := store.PatchUser(ctx, u.ID, models.UserPatch{
			Status:          strPtr(models.StatusApproved),
			EnrolledCourses: &courses,
			CourseExpiry:    map[string]time.Time{"gpat": expiry},
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, patched.Status)
		assert.Equal(t, "Asha", patched.Name)

		got, err = store.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.IsEnrolled("gpat"))
		assert.True(t, expiry.Equal(got.CourseExpiry["gpat"]))

		_, err = store.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.PatchUser(ctx, "missing", models.UserPatch{Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)

		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("enroll merges courses", func(t *testing.T) {
		u, err := store.CreateUser(ctx, models.User{Email: "ravi@example.com", Password: "pw", Role: models.RoleStudent, Status: models.StatusApproved})
		require.NoError(t, err)

		first := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		later := first.AddDate(0, 6, 0)
		_, err = store.EnrollUser(ctx, u.ID, "gpat", first)
		require.NoError(t, err)
		_, err = store.EnrollUser(ctx, u.ID, "niper", first)
		require.NoError(t, err)
		enrolled, err := store.EnrollUser(ctx, u.ID, "gpat", later)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"gpat", "niper"}, enrolled.EnrolledCourses)

		got, err := store.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"gpat", "niper"}, got.EnrolledCourses)
		assert.True(t, later.Equal(got.CourseExpiry["gpat"]))
		assert.True(t, first.Equal(got.CourseExpiry["niper"]))

		_, err = store.EnrollUser(ctx, "missing", "gpat", first)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("tests", func(t *testing.T) {
		created, err := store.CreateTest(ctx, models.TestItem{
			CourseID: "gpat", Title: "Pharmacology 1", TimeMinutes: 10,
			Questions: []models.Question{
				{ID: "q1", Text: "Drug of choice?", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 2},
			},
		})
		require.NoError(t, err)

		got, err := store.GetTest(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, got.Questions, 1)
		assert.Equal(t, 2, got.Questions[0].CorrectOptionIndex)
		assert.Equal(t, []string{"a", "b", "c", "d"}, got.Questions[0].Options)

		_, err = store.GetTest(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.CreateTest(ctx, models.TestItem{ID: created.ID, CourseID: "gpat", Title: "Copy"})
		assert.ErrorIs(t, err, ErrDuplicateID)
		tests, err := store.ListTests(ctx)
		require.NoError(t, err)
		assert.Len(t, tests, 1)
		assert.Equal(t, "Pharmacology 1", tests[0].Title)
	})

	t.Run("resources", func(t *testing.T) {
		res, err := store.CreateResource(ctx, models.CourseResource{
			CourseID: "gpat", Title: "Live revision", Type: models.ResourceLive, URL: "https://meet.example.com/x",
		})
		require.NoError(t, err)
		assert.False(t, res.Date.IsZero())

		list, err := store.ListResources(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, store.DeleteResource(ctx, res.ID))
		assert.ErrorIs(t, store.DeleteResource(ctx, res.ID), ErrNotFound)
	})

	t.Run("results replace per user and test", func(t *testing.T) {
		first := models.TestResult{UserID: "u1", TestID: "t1", CourseID: "gpat", Score: 1, TotalQuestions: 3, Date: time.Now().UTC()}
		require.NoError(t, store.SaveResult(ctx, first))
		second := first
		second.Score = 3
		require.NoError(t, store.SaveResult(ctx, second))
		require.NoError(t, store.SaveResult(ctx, models.TestResult{UserID: "u1", TestID: "t2", Score: 0, TotalQuestions: 1, Date: time.Now().UTC()}))

		results, err := store.ListResults(ctx)
		require.NoError(t, err)
		assert.Len(t, results, 2)
		for _, r := range results {
			if r.TestID == "t1" {
				assert.Equal(t, 3, r.Score)
			}
		}
	})

	t.Run("courses upsert", func(t *testing.T) {
		c, err := store.SaveCourse(ctx, models.Course{ID: "gpat", Title: "GPAT", ValidityDays: 180})
		require.NoError(t, err)
		c.ValidityDays = 90
		_, err = store.SaveCourse(ctx, c)
		require.NoError(t, err)

		courses, err := store.ListCourses(ctx)
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, 90, courses[0].ValidityDays)
	})
}

func TestJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")
	store, err := OpenJSONStore(path)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestJSONStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	store, err := OpenJSONStore(path)
	require.NoError(t, err)

	u, err := store.CreateUser(context.Background(), models.User{Email: "a@b.c", Password: "p", Role: models.RoleAdmin, Status: models.StatusApproved})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenJSONStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
}

func TestJSONStore_ConcurrentWritesAreSerialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	store, err := OpenJSONStore(path)
	require.NoError(t, err)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateResource(context.Background(), models.CourseResource{CourseID: "gpat", Type: models.ResourceVideo})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := store.ListResources(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 20)

	reopened, err := OpenJSONStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	list, err = reopened.ListResources(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestJSONStore_ReadsAreCopies(t *testing.T) {
	store, err := OpenJSONStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	defer store.Close()

	u, err := store.CreateUser(context.Background(), models.User{Email: "a@b.c", EnrolledCourses: []string{"gpat"}})
	require.NoError(t, err)

	got, err := store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	got.EnrolledCourses[0] = "changed"

	again, err := store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "gpat", again.EnrolledCourses[0])
}

func TestJSONStore_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenJSONStore(path)
	assert.Error(t, err)
}

func TestSQLStore_Sqlite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBName: filepath.Join(t.TempDir(), "test.db"), LogLevel: "error"}
	store, err := Open(cfg)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
