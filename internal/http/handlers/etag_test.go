package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIfNoneMatchMatches(t *testing.T) {
	tests := []struct {
		name   string
		header string
		etag   string
		want   bool
	}{
		{"empty_header", "", `"abc"`, false},
		{"exact", `"abc"`, `"abc"`, true},
		{"weak_validator", `W/"abc"`, `"abc"`, true},
		{"list", `"x", "abc"`, `"abc"`, true},
		{"wildcard", "*", `"abc"`, true},
		{"different", `"def"`, `"abc"`, false},
	}

	for _, tt := range tests {
		if got := ifNoneMatchMatches(tt.header, tt.etag); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRespondJSONWithETag(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		RespondJSONWithETag(c, http.StatusOK, []string{"a", "b"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusOK || w.Body.String() != `["a","b"]` {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("expected empty 304, got %d %q", w.Code, w.Body.String())
	}
}
