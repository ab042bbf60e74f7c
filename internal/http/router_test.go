package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestpass/pkg/requestcontext"
)

type pingRegistrar struct {
	sawRequestID bool
}

func (p *pingRegistrar) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		p.sawRequestID = requestcontext.RequestID(r.Context()) != ""
		w.WriteHeader(http.StatusOK)
	})
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := New(Deps{Registry: prometheus.NewRegistry()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequestIDFlowsToHandlers(t *testing.T) {
	reg := &pingRegistrar{}
	router := New(Deps{Registrars: []Registrar{reg}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reg.sawRequestID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_EchoesCallerRequestID(t *testing.T) {
	router := New(Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-id-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "caller-id-1", rec.Header().Get("X-Request-ID"))
}
