package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/geocoder89/lostfound/internal/auth"
	"github.com/geocoder89/lostfound/internal/cache"
	"github.com/geocoder89/lostfound/internal/config"
	"github.com/geocoder89/lostfound/internal/db"
	"github.com/geocoder89/lostfound/internal/domain/item"
	"github.com/geocoder89/lostfound/internal/domain/user"
	apphttp "github.com/geocoder89/lostfound/internal/http"
	"github.com/geocoder89/lostfound/internal/repo/postgres"
	"github.com/geocoder89/lostfound/internal/security"
	"github.com/geocoder89/lostfound/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const adminPassword = "admin-password"

// setupPostgres needs a disposable database in TEST_DB_DSN; the suite is skipped without one.
func setupPostgres(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.MigratePostgres(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE items, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	users := postgres.NewUsersRepo(pool, nil)
	items := postgres.NewItemsRepo(pool, nil)
	tokens := auth.NewManager("integration-secret")

	if err := db.EnsureAdminUser(ctx, users, security.Bcrypt{}, "admin", adminPassword); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	router := apphttp.NewRouter(apphttp.Deps{
		Config:   config.Config{Env: "test", MaxBodyBytes: 1 << 20, LoginRateLimit: 1000},
		Items:    service.NewItemsService(items, cache.NewMemory(0), nil),
		Auth:     service.NewAuthService(users, security.Bcrypt{}, tokens),
		Verifier: tokens,
		Ping:     func() error { return pool.Ping(context.Background()) },
	})

	return router, pool
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: got %d body=%s", username, w.Code, w.Body.String())
	}

	var res service.LoginResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return res.Token
}

func register(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{"username": username, "password": "password-123"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: got %d body=%s", username, w.Code, w.Body.String())
	}
	return login(t, router, username, "password-123")
}

func TestPostgres_ItemLifecycle(t *testing.T) {
	router, _ := setupPostgres(t)

	ownerToken := register(t, router, "alice")
	otherToken := register(t, router, "bob")
	adminToken := login(t, router, "admin", adminPassword)

	w := doJSON(t, router, http.MethodPost, "/items", ownerToken, map[string]any{
		"title":    "Wallet",
		"status":   "lost",
		"location": "Library",
		"date":     "2024-05-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}

	var created item.Item
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	path := fmt.Sprintf("/items/%d", created.ID)

	if w := doJSON(t, router, http.MethodPut, path, otherToken, map[string]any{"status": "found"}); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner update: got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPatch, path, ownerToken, map[string]any{"status": "found", "location": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: got %d body=%s", w.Code, w.Body.String())
	}

	var updated item.Item
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Status != item.StatusFound || updated.Location != nil || updated.Title != "Wallet" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	w = doJSON(t, router, http.MethodGet, "/items?status=found&date=2024-05-01", "", nil)
	var listed []item.Item
	_ = json.Unmarshal(w.Body.Bytes(), &listed)
	if w.Code != http.StatusOK || len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("filtered list: got %d items=%+v", w.Code, listed)
	}

	if w := doJSON(t, router, http.MethodDelete, path, ownerToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("owner delete: got %d", w.Code)
	}

	if w := doJSON(t, router, http.MethodDelete, path, adminToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("admin delete: got %d", w.Code)
	}

	if w := doJSON(t, router, http.MethodGet, path, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d", w.Code)
	}
}

func TestPostgres_DuplicateRegistration(t *testing.T) {
	router, _ := setupPostgres(t)

	register(t, router, "carol")

	w := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{"username": "carol", "password": "password-456"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestPostgres_SeededAdminRole(t *testing.T) {
	router, pool := setupPostgres(t)

	var role string
	if err := pool.QueryRow(context.Background(), `SELECT role FROM users WHERE username = 'admin'`).Scan(&role); err != nil {
		t.Fatalf("query admin: %v", err)
	}
	if role != user.RoleAdmin {
		t.Fatalf("expected admin role, got %q", role)
	}

	if w := doJSON(t, router, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("readyz: got %d", w.Code)
	}
}
