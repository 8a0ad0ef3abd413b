package middleware

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacoach/database"
	"pharmacoach/models"
)

func TestSessionManager_IssueParseRevoke(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)
	user := models.User{ID: "u1", Email: "a@b.c", Role: models.RoleStudent}

	token, claims, err := m.GenerateJWT(user)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, claims.ID, parsed.ID)

	_, err = NewSessionManager("other", time.Hour).ParseToken(token)
	assert.Error(t, err)

	m.Revoke(claims.ID, claims.ExpiresAt.Time)
	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestSessionManager_ExpiredToken(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.GenerateJWT(models.User{ID: "u1"})
	require.NoError(t, err)
	_, err = m.ParseToken(token)
	assert.Error(t, err)
}

func TestSessionManager_PruneRevoked(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)
	now := time.Now()
	m.Revoke("old", now.Add(-time.Minute))
	m.Revoke("live", now.Add(time.Minute))

	assert.Equal(t, 1, m.PruneRevoked())
	assert.Len(t, m.revoked, 1)
}

func setupStore(t *testing.T) database.Store {
	t.Helper()
	store, err := database.OpenJSONStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	prev := database.Database
	database.Database = database.DbInstance{Store: store}
	t.Cleanup(func() {
		store.Close()
		database.Database = prev
	})
	return store
}

func TestJWTMiddleware(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	admin, err := store.CreateUser(ctx, models.User{Email: "admin@x.io", Role: models.RoleAdmin, Status: models.StatusApproved})
	require.NoError(t, err)
	student, err := store.CreateUser(ctx, models.User{Email: "s@x.io", Role: models.RoleStudent, Status: models.StatusApproved})
	require.NoError(t, err)
	pending, err := store.CreateUser(ctx, models.User{Email: "p@x.io", Role: models.RoleStudent, Status: models.StatusPending})
	require.NoError(t, err)

	m := NewSessionManager("secret", time.Hour)
	app := fiber.New()
	app.Get("/me", m.JWTMiddleware, func(c *fiber.Ctx) error {
		s, ok := CurrentSession(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(s.User.ID)
	})
	app.Get("/admin", m.JWTMiddleware, AdminOnly, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tokenFor := func(u models.User) string {
		tok, _, err := m.GenerateJWT(u)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"bad scheme", "/me", "Token abc", fiber.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", fiber.StatusUnauthorized},
		{"student", "/me", "Bearer " + tokenFor(student), fiber.StatusOK},
		{"pending account", "/me", "Bearer " + tokenFor(pending), fiber.StatusUnauthorized},
		{"unknown user", "/me", "Bearer " + tokenFor(models.User{ID: "ghost"}), fiber.StatusUnauthorized},
		{"student on admin route", "/admin", "Bearer " + tokenFor(student), fiber.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + tokenFor(admin), fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
