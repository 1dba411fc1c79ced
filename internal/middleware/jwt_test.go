package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/models"
)

type stubValidator struct {
	userID uuid.UUID
	email  string
	level  models.AuthLevel
	err    error
}

func (s stubValidator) ValidateBearer(token string) (uuid.UUID, string, models.AuthLevel, error) {
	if s.err != nil {
		return uuid.Nil, "", 0, s.err
	}
	return s.userID, s.email, s.level, nil
}

func TestJWTSetsIdentityInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	var gotUser uuid.UUID
	var gotLevel models.AuthLevel
	var gotEmail string
	r := gin.New()
	r.GET("/me", JWT(stubValidator{userID: userID, email: "dancer@example.com", level: models.LevelCreator}),
		func(c *gin.Context) {
			gotUser = c.MustGet(ContextUserID).(uuid.UUID)
			gotLevel = c.MustGet(ContextAuthLevel).(models.AuthLevel)
			gotEmail = c.MustGet(ContextUserEmail).(string)
			c.Status(http.StatusOK)
		})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUser != userID {
		t.Fatalf("context user id = %s, want %s", gotUser, userID)
	}
	if gotLevel != models.LevelCreator {
		t.Fatalf("context auth level = %d, want %d", gotLevel, models.LevelCreator)
	}
	if gotEmail != "dancer@example.com" {
		t.Fatalf("context email = %q", gotEmail)
	}
}

func TestJWTRejectsBadRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		header string
		tokens TokenValidator
	}{
		{"missing header", "", stubValidator{}},
		{"wrong scheme", "Basic abc", stubValidator{}},
		{"invalid token", "Bearer bad", stubValidator{err: errors.New("expired")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", JWT(tc.tokens), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRequireLevelBlocksBelowMinimum(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin",
		JWT(stubValidator{userID: uuid.New(), level: models.LevelViewer}),
		RequireLevel(models.LevelAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}
