// internal/server/routes.go
//
// Chi router exposing the store over HTTP.
//
// Context
// -------
// Each key-value verb maps onto exactly one Store call, so the HTTP layer
// adds no ordering of its own; serialisation is the Store's job.
//
//	GET    /kv/{key}   Get          200 | 404
//	PUT    /kv/{key}   Put          204 | 413
//	POST   /kv/{key}   PutIfAbsent  201 | 409 | 413
//	PATCH  /kv/{key}   Set          204 | 404 | 413
//	DELETE /kv/{key}   Delete       204 | 404
//	GET    /keys       MRU→LRU key list (JSON)
//	GET    /stats      size snapshot (JSON)
//	GET    /healthz    liveness
//	GET    /metrics    Prometheus
//
// Keys are the rest of the path after /kv/ and may contain slashes.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/kvd/internal/kv"
)

// Store is the subset of *kv.Store the routes need.
type Store interface {
	Put(key string, value []byte) error
	PutIfAbsent(key string, value []byte) error
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Keys() []string
	Stats() kv.Stats
}

type handler struct {
	store   Store
	log     *zap.SugaredLogger
	maxBody int64
}

// Routes builds the root handler.  Request bodies larger than maxBody are
// refused with 413 before the store is consulted.  log may be nil.
func Routes(store Store, log *zap.SugaredLogger, maxBody int) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &handler{store: store, log: log, maxBody: int64(maxBody)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Route("/kv", func(r chi.Router) {
		r.Get("/*", h.get)
		r.Put("/*", h.put)
		r.Post("/*", h.putIfAbsent)
		r.Patch("/*", h.set)
		r.Delete("/*", h.delete)
	})
	r.Get("/keys", h.keys)
	r.Get("/stats", h.stats)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// -----------------------------------------------------------------------------
// key-value verbs
// -----------------------------------------------------------------------------

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}
	v, err := h.store.Get(key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(v)
}

func (h *handler) put(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.store.Put, http.StatusNoContent)
}

func (h *handler) putIfAbsent(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.store.PutIfAbsent, http.StatusCreated)
}

func (h *handler) set(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.store.Set, http.StatusNoContent)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(key); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// write reads the body and hands it to op.
func (h *handler) write(w http.ResponseWriter, r *http.Request,
	op func(string, []byte) error, okStatus int) {

	key, ok := keyParam(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.fail(w, r, kv.ErrTooLarge)
			return
		}
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := op(key, body); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(okStatus)
}

// -----------------------------------------------------------------------------
// introspection
// -----------------------------------------------------------------------------

func (h *handler) keys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.store.Keys())
}

func (h *handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.store.Stats())
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func keyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "*")
	if key == "" {
		http.Error(w, "empty key", http.StatusBadRequest)
		return "", false
	}
	return key, true
}

// fail maps the store's error taxonomy onto HTTP status codes.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, kv.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, kv.ErrExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, kv.ErrTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		h.log.Errorw("store error", "path", r.URL.Path, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// accessLog emits one DEBUG line per request with status, size, and latency.
func accessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debugw("http request",
				"req_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"dur", time.Since(start),
			)
		})
	}
}
