package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/pms-backend/pkg/ctxutil"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
	}{
		{name: "reuses incoming header", incoming: "channel-req-7"},
		{name: "generates uuid when absent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotID string
			h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID = ctxutil.RequestIDFromCtx(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusNoContent, rec.Code)
			require.NotEmpty(t, gotID)
			assert.Equal(t, gotID, rec.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, gotID)
			} else {
				_, err := uuid.Parse(gotID)
				assert.NoError(t, err)
			}
		})
	}
}

// A mutation request carries both the request id and the property id down
// to the handler, and the access log sees the property through the holder.
func TestRequestID_WithProperty(t *testing.T) {
	t.Parallel()

	propertyID := uuid.New()
	var (
		gotRequestID string
		gotProperty  uuid.UUID
		holderID     uuid.UUID
	)

	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			holder := &propertyHolder{}
			next.ServeHTTP(w, req.WithContext(withPropertyHolder(req.Context(), holder)))
			holderID, _ = holder.get()
		})
	})
	r.Route("/properties/{"+PropertyParam+"}", func(r chi.Router) {
		r.Use(Property())
		r.Post("/ari/bulk", func(w http.ResponseWriter, req *http.Request) {
			gotRequestID = ctxutil.RequestIDFromCtx(req.Context())
			gotProperty, _ = ctxutil.PropertyIDFromCtx(req.Context())
			w.WriteHeader(http.StatusOK)
		})
	})

	req := httptest.NewRequest(http.MethodPost, "/properties/"+propertyID.String()+"/ari/bulk", nil)
	req.Header.Set(RequestIDHeader, "bulk-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bulk-1", gotRequestID)
	assert.Equal(t, propertyID, gotProperty)
	assert.Equal(t, propertyID, holderID)
	assert.Equal(t, "bulk-1", rec.Header().Get(RequestIDHeader))
}
