// Package httpapi is the HTTP/JSON surface of the store.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/datatrails/go-datatrails-kvstore/auth"
	"github.com/datatrails/go-datatrails-kvstore/correlationid"
	"github.com/datatrails/go-datatrails-kvstore/errhandling"
)

const (
	// MaxBodyBytes bounds a set request body.
	MaxBodyBytes = 1 << 20

	okMessage       = "OK"
	requestIDHeader = "X-Request-Id"
)

// Store is the part of the store facade the HTTP surface needs.
type Store interface {
	auth.TokenValidator
	Get(ctx context.Context, credential, key string) (string, error)
	Set(ctx context.Context, credential, key, value string, ttl *int64) error
	Delete(ctx context.Context, credential, key string) error
	HealthCheck(ctx context.Context) (bool, error)
}

// SetRequest is the body of POST /{key}.
type SetRequest struct {
	Value      *string `json:"value"`
	TTLSeconds *int64  `json:"ttl_seconds,omitempty"`
}

type valueResponse struct {
	Value string `json:"value"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type handler struct {
	log   Logger
	store Store
}

// Middleware wraps the whole api, outermost first.
type Middleware func(http.Handler) http.Handler

type Option func(*options)

type options struct {
	middleware []Middleware
}

// WithMiddleware adds handlers, such as tracing and metrics, around the api.
// The first is outermost.
func WithMiddleware(m ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, m...)
	}
}

// NewHandler routes GET /healthz without authentication and GET, POST and
// DELETE /{key} behind a single bearer auth stage.
func NewHandler(log Logger, store Store, opts ...Option) http.Handler {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	h := &handler{
		log:   log.WithIndex("transport", "http"),
		store: store,
	}

	keys := http.NewServeMux()
	keys.HandleFunc("GET /{key}", h.get)
	keys.HandleFunc("POST /{key}", h.set)
	keys.HandleFunc("DELETE /{key}", h.delete)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("/{key}", h.authenticate(keys))

	var root http.Handler = withCorrelationID(mux)
	for i := len(o.middleware) - 1; i >= 0; i-- {
		root = o.middleware[i](root)
	}
	return root
}

// withCorrelationID adopts or mints a correlation id and echoes it to the
// caller so that error responses can be matched to the logs.
func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := correlationid.FromRequest(r)
		w.Header().Set(requestIDHeader, correlationid.FromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate runs once per request, ahead of every key handler.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		credential, err := auth.BearerCredential(r.Header.Get("Authorization"))
		if err == nil {
			err = auth.Check(ctx, h.store, credential)
		}
		if err != nil {
			errhandling.WriteHTTPError(ctx, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithCredential(ctx, credential)))
	})
}

func (h *handler) credential(w http.ResponseWriter, r *http.Request) (string, bool) {
	credential, ok := auth.CredentialFromContext(r.Context())
	if !ok {
		// only reachable if the routes are wired without authenticate
		errhandling.WriteHTTPError(r.Context(), w, errhandling.Unauthorized("no credential in context"))
	}
	return credential, ok
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	credential, ok := h.credential(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	key := r.PathValue("key")
	h.log.FromContext(ctx).Infof("GET %s (token: %s)", key, auth.Redact(credential))

	value, err := h.store.Get(ctx, credential, key)
	if err != nil {
		errhandling.WriteHTTPError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, valueResponse{Value: value})
}

func (h *handler) set(w http.ResponseWriter, r *http.Request) {
	credential, ok := h.credential(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	key := r.PathValue("key")

	req, err := decodeSetRequest(w, r)
	if err != nil {
		errhandling.WriteHTTPError(ctx, w, err)
		return
	}
	h.log.FromContext(ctx).Infof("SET %s (token: %s, ttl: %v)", key, auth.Redact(credential), ttlString(req.TTLSeconds))

	if err := h.store.Set(ctx, credential, key, *req.Value, req.TTLSeconds); err != nil {
		errhandling.WriteHTTPError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, messageResponse{Message: okMessage})
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	credential, ok := h.credential(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	key := r.PathValue("key")
	h.log.FromContext(ctx).Infof("DELETE %s (token: %s)", key, auth.Redact(credential))

	if err := h.store.Delete(ctx, credential, key); err != nil {
		errhandling.WriteHTTPError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, messageResponse{Message: okMessage})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	healthy, err := h.store.HealthCheck(ctx)
	if err == nil && !healthy {
		err = errhandling.Internal(nil, "backend did not answer PONG")
	}
	if err != nil {
		errhandling.WriteHTTPError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, messageResponse{Message: okMessage})
}

func decodeSetRequest(w http.ResponseWriter, r *http.Request) (*SetRequest, error) {
	var req SetRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errhandling.InvalidRequest("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, errhandling.InvalidRequest("invalid JSON body: %v", err)
	}
	if req.Value == nil {
		return nil, errhandling.InvalidRequest("missing field `value`")
	}
	return &req, nil
}

func (h *handler) writeJSON(ctx context.Context, w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.FromContext(ctx).Infof("failed to write response: %v", err)
	}
}

func ttlString(ttl *int64) string {
	if ttl == nil {
		return "none"
	}
	return fmt.Sprintf("%ds", *ttl)
}
