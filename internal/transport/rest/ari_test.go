package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
	"github.com/heartmarshall/pms-backend/internal/service/channel"
	"github.com/heartmarshall/pms-backend/pkg/ctxutil"
)

type ariServiceMock struct {
	bulkInput ari.BulkInput
	err       error
}

func (m *ariServiceMock) ApplyBulk(_ context.Context, _ uuid.UUID, input ari.BulkInput) (*ari.BulkResult, error) {
	m.bulkInput = input
	if m.err != nil {
		return nil, m.err
	}
	return &ari.BulkResult{Applied: true, EventIDs: []string{"ari_1"}}, nil
}

func (m *ariServiceMock) Undo(context.Context, uuid.UUID, string) (*ari.UndoResult, error) {
	return nil, m.err
}

func (m *ariServiceMock) GetEvent(context.Context, uuid.UUID, string) (*domain.AriEvent, error) {
	return nil, m.err
}

func (m *ariServiceMock) ListEvents(context.Context, uuid.UUID, ari.ListEventsInput) ([]domain.AriEvent, error) {
	return nil, m.err
}

func (m *ariServiceMock) ResolvePrice(context.Context, uuid.UUID, uuid.UUID, string, time.Time) (*decimal.Decimal, error) {
	return nil, m.err
}

type channelServiceMock struct{}

func (channelServiceMock) Ingest(context.Context, uuid.UUID, channel.InboundEvent) (*channel.IngestResult, error) {
	return nil, errors.New("not used")
}

func (channelServiceMock) ApplyPending(context.Context, uuid.UUID, string) (*channel.IngestResult, error) {
	return nil, errors.New("not used")
}

func bulkRequestFor(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bulk", strings.NewReader(body))
	return req.WithContext(ctxutil.WithPropertyID(req.Context(), uuid.New()))
}

const validBulkBody = `{
	"dateFrom": "2026-03-01",
	"dateTo": "2026-03-31",
	"roomTypeIds": ["8d6f3a52-3f0a-4c47-9a86-5d4a2b1e7c10"],
	"daysOfWeek": [5, 6],
	"ratePlanCode": "BAR",
	"overrideManual": true,
	"changes": {"price": "149.50", "closed": false}
}`

func TestApplyBulk_MapsRequestToInput(t *testing.T) {
	t.Parallel()

	svc := &ariServiceMock{}
	h := NewARIHandler(svc, channelServiceMock{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.ApplyBulk(rec, bulkRequestFor(t, validBulkBody))

	require.Equal(t, http.StatusOK, rec.Code)
	in := svc.bulkInput
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), in.DateFrom)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), in.DateTo)
	assert.Equal(t, []uuid.UUID{uuid.MustParse("8d6f3a52-3f0a-4c47-9a86-5d4a2b1e7c10")}, in.RoomTypeIDs)
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, in.DaysOfWeek)
	assert.Equal(t, "BAR", in.RatePlanCode)
	assert.True(t, in.OverrideManual)
	require.Len(t, in.Changes, 2)
	rate, ok := in.Changes[0].(domain.RateChange)
	require.True(t, ok)
	assert.True(t, rate.Price.Equal(decimal.RequireFromString("149.5")))
	assert.IsType(t, domain.RestrictionChange{}, in.Changes[1])

	var resp bulkResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"ari_1"}, resp.EventIDs)
	assert.Equal(t, []string{}, resp.Warnings)
}

func TestApplyBulk_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.NewValidationError("changes", "at least one change required"), http.StatusBadRequest},
		{"not found", fmt.Errorf("get rate plan X: %w", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("commit: %w", domain.ErrConflict), http.StatusConflict},
		{"aborted", fmt.Errorf("commit: %w", domain.ErrTxAborted), http.StatusServiceUnavailable},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			h := NewARIHandler(&ariServiceMock{err: tt.err}, channelServiceMock{}, slog.New(slog.NewJSONHandler(&logs, nil)))

			rec := httptest.NewRecorder()
			h.ApplyBulk(rec, bulkRequestFor(t, validBulkBody))

			assert.Equal(t, tt.status, rec.Code)
			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp.Error)
				assert.Contains(t, logs.String(), "connection reset")
			} else if tt.status == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
				assert.Contains(t, logs.String(), "transaction aborted")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestApplyBulk_MissingProperty(t *testing.T) {
	t.Parallel()

	h := NewARIHandler(&ariServiceMock{}, channelServiceMock{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.ApplyBulk(rec, httptest.NewRequest(http.MethodPost, "/bulk", strings.NewReader(validBulkBody)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEvents_BadLimit(t *testing.T) {
	t.Parallel()

	h := NewARIHandler(&ariServiceMock{}, channelServiceMock{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/events?limit=ten", nil)
	req = req.WithContext(ctxutil.WithPropertyID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	h.ListEvents(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "limit", resp.Fields[0].Field)
}
