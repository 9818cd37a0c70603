package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/database"
	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/models"
)

const testSecret = "test-secret"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "mw.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	users := []models.User{
		{UserID: "u-admin", Email: "admin@example.lk", Role: models.RoleAdmin, Active: true},
		{UserID: "u-auditor", Email: "auditor@example.lk", Role: models.RoleAuditor, Active: true},
		{UserID: "u-gone", Email: "gone@example.lk", Role: models.RoleDirector, Active: false},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatal(err)
	}
	return db
}

func sign(t *testing.T, userID, secret string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", AuthMiddleware(db, AuthConfig{JWTSecret: testSecret}))
	g.GET("/read", RequireRoles(models.RoleDirector, models.RoleAuditor), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/write", RequireRoles(models.RoleDirector), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	db := setupDB(t)
	r := newRouter(db)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/read", "", http.StatusUnauthorized},
		{"malformed header", "/read", "Token abc", http.StatusUnauthorized},
		{"wrong secret", "/read", "Bearer " + sign(t, "u-admin", "other", time.Minute), http.StatusUnauthorized},
		{"expired", "/read", "Bearer " + sign(t, "u-admin", testSecret, -time.Minute), http.StatusUnauthorized},
		{"inactive user", "/read", "Bearer " + sign(t, "u-gone", testSecret, time.Minute), http.StatusUnauthorized},
		{"auditor reads", "/read", "Bearer " + sign(t, "u-auditor", testSecret, time.Minute), http.StatusOK},
		{"auditor cannot write", "/write", "Bearer " + sign(t, "u-auditor", testSecret, time.Minute), http.StatusForbidden},
		{"admin passes every gate", "/write", "Bearer " + sign(t, "u-admin", testSecret, time.Minute), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("got %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareQueryToken(t *testing.T) {
	r := newRouter(setupDB(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/read?token="+sign(t, "u-auditor", testSecret, time.Minute), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.Configure(logger.Config{Level: "info", Output: &buf})
	defer logger.Configure(logger.Config{Level: "info", Pretty: true})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, `"path":"/boom"`) || !strings.Contains(out, `"status":500`) {
		t.Errorf("unexpected log line: %s", out)
	}
}
