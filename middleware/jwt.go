package middleware

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"pharmacoach/database"
	"pharmacoach/models"
)

var ErrTokenRevoked = errors.New("token has been revoked")

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Session is the authenticated caller of a request.
type Session struct {
	TokenID   string
	ExpiresAt time.Time
	User      models.User
}

func (s *Session) IsAdmin() bool {
	return s.User.IsAdmin()
}

// SessionManager issues, verifies and revokes session tokens.
type SessionManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		key:     []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// GenerateJWT issues a signed token for user.
func (m *SessionManager) GenerateJWT(user models.User) (string, *Claims, error) {
	issuedAt := m.now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken verifies the signature, expiry and revocation state of tokenString.
func (m *SessionManager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token payload")
	}

	m.mu.Lock()
	_, revoked := m.revoked[claims.ID]
	m.mu.Unlock()
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks the token id until it would have expired anyway.
func (m *SessionManager) Revoke(tokenID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = expiresAt
}

// PruneRevoked forgets revoked ids whose tokens have expired and returns how many were dropped.
func (m *SessionManager) PruneRevoked() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for id, exp := range m.revoked {
		if exp.Before(now) {
			delete(m.revoked, id)
			pruned++
		}
	}
	return pruned
}

// JWTMiddleware checks the bearer token, loads the caller and stores the Session in the request context.
// Only approved accounts get through.
func (m *SessionManager) JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid Authorization header format", nil)
	}

	claims, err := m.ParseToken(authHeader[len("Bearer "):])
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
	}

	user, err := database.Database.Store.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}
		return err
	}
	if !user.IsApproved() {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Account is not active!", nil)
	}

	c.Locals("userId", user.ID)
	c.Locals("session", &Session{
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	})
	return c.Next()
}

// CurrentSession returns the Session stored by JWTMiddleware.
func CurrentSession(c *fiber.Ctx) (*Session, bool) {
	s, ok := c.Locals("session").(*Session)
	return s, ok && s != nil
}
