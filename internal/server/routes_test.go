// internal/server/routes_test.go
//
// Unit-tests for the HTTP routes.
//
// Context
// -------
// Each test builds a real kv.Store behind Routes() and drives it with
// httptest, asserting status codes for every branch of the error taxonomy:
//
//   • write verbs → 201 / 204, 404, 409, 413
//   • reads       → 200 with body, 404
//   • JSON views  → /keys order, /stats snapshot
//
// Run: go test ./internal/server -v

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yanizio/kvd/internal/config"
	"github.com/yanizio/kvd/internal/kv"
)

func newHandler(t *testing.T, maxSize int) http.Handler {
	t.Helper()
	store := kv.New(config.Cache{MaxSize: maxSize}, nil)
	return Routes(store, nil, maxSize)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_Verbs(t *testing.T) {
	h := newHandler(t, 10)

	steps := []struct {
		method, path, body string
		want               int
		wantBody           string
	}{
		{http.MethodPost, "/kv/a", "1", http.StatusCreated, ""},
		{http.MethodPost, "/kv/a", "1", http.StatusConflict, ""},
		{http.MethodGet, "/kv/a", "", http.StatusOK, "1"},
		{http.MethodPatch, "/kv/a", "11", http.StatusNoContent, ""},
		{http.MethodGet, "/kv/a", "", http.StatusOK, "11"},
		{http.MethodPatch, "/kv/missing", "x", http.StatusNotFound, ""},
		{http.MethodPut, "/kv/b", "22", http.StatusNoContent, ""},
		{http.MethodPut, "/kv/b", "2", http.StatusNoContent, ""},
		{http.MethodPost, "/kv/big", "123456789", http.StatusRequestEntityTooLarge, ""},
		{http.MethodDelete, "/kv/b", "", http.StatusNoContent, ""},
		{http.MethodDelete, "/kv/b", "", http.StatusNotFound, ""},
		{http.MethodGet, "/kv/b", "", http.StatusNotFound, ""},
		{http.MethodGet, "/kv/", "", http.StatusBadRequest, ""},
	}
	for i, s := range steps {
		rr := do(t, h, s.method, s.path, s.body)
		if rr.Code != s.want {
			t.Fatalf("step %d %s %s: status = %d, want %d (%s)",
				i, s.method, s.path, rr.Code, s.want, rr.Body.String())
		}
		if s.wantBody != "" && rr.Body.String() != s.wantBody {
			t.Fatalf("step %d %s %s: body = %q, want %q",
				i, s.method, s.path, rr.Body.String(), s.wantBody)
		}
	}
}

func TestRoutes_BodyOverCapacity(t *testing.T) {
	h := newHandler(t, 8)

	rr := do(t, h, http.MethodPut, "/kv/k", "0123456789")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
}

func TestRoutes_KeysWithSlashes(t *testing.T) {
	h := newHandler(t, 64)

	if rr := do(t, h, http.MethodPut, "/kv/users/42", "x"); rr.Code != http.StatusNoContent {
		t.Fatalf("put status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/kv/users/42", ""); rr.Body.String() != "x" {
		t.Fatalf("get body = %q", rr.Body.String())
	}
}

func TestRoutes_KeysAndStats(t *testing.T) {
	h := newHandler(t, 10)
	do(t, h, http.MethodPut, "/kv/a", "1")
	do(t, h, http.MethodPut, "/kv/b", "22")
	do(t, h, http.MethodPut, "/kv/c", "333")
	do(t, h, http.MethodPut, "/kv/d", "44") // evicts a

	rr := do(t, h, http.MethodGet, "/keys", "")
	var keys []string
	if err := json.Unmarshal(rr.Body.Bytes(), &keys); err != nil {
		t.Fatalf("decode keys: %v", err)
	}
	if want := []string{"d", "c", "b"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	rr = do(t, h, http.MethodGet, "/stats", "")
	var st kv.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if want := (kv.Stats{Entries: 3, Bytes: 10, Capacity: 10}); st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	h := newHandler(t, 10)

	if rr := do(t, h, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "kvd_capacity_bytes") {
		t.Fatalf("metrics status = %d, body lacks kvd_capacity_bytes", rr.Code)
	}
}

func TestNew_TimeoutDefaults(t *testing.T) {
	srv := New(config.HTTP{ListenAddr: ":0", WriteTimeout: 3 * time.Second}, http.NotFoundHandler())

	if srv.Addr != ":0" {
		t.Errorf("addr = %q", srv.Addr)
	}
	if srv.WriteTimeout != 3*time.Second {
		t.Errorf("write timeout = %s, want 3s", srv.WriteTimeout)
	}
	if srv.ReadTimeout != defaultReadTimeout || srv.IdleTimeout != defaultIdleTimeout {
		t.Errorf("defaults not applied: read=%s idle=%s", srv.ReadTimeout, srv.IdleTimeout)
	}
}
