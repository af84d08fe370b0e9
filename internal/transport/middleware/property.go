package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/pms-backend/pkg/ctxutil"
)

// PropertyParam is the chi URL parameter naming the property.
const PropertyParam = "propertyID"

// Property parses the {propertyID} path segment and stores it in the
// context. Requests with a malformed id get a 400 and never reach next.
func Property() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := chi.URLParam(r, PropertyParam)
			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				writeErrorJSON(w, http.StatusBadRequest, "invalid property id")
				return
			}
			if h, ok := r.Context().Value(propertyHolderKey{}).(*propertyHolder); ok {
				h.set(id)
			}
			next.ServeHTTP(w, r.WithContext(ctxutil.WithPropertyID(r.Context(), id)))
		})
	}
}

type propertyHolderKey struct{}

type propertyHolder struct {
	mu sync.Mutex
	id uuid.UUID
}

func withPropertyHolder(ctx context.Context, h *propertyHolder) context.Context {
	return context.WithValue(ctx, propertyHolderKey{}, h)
}

func (h *propertyHolder) set(id uuid.UUID) {
	h.mu.Lock()
	h.id = id
	h.mu.Unlock()
}

func (h *propertyHolder) get() (uuid.UUID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id, h.id != uuid.Nil
}
