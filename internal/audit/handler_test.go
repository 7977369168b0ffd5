package audit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	entries []Entry
	limit   int
}

func (f *fakeLister) Recent(_ context.Context, limit int) ([]Entry, error) {
	f.limit = limit
	return f.entries, nil
}

func TestRecentEntries(t *testing.T) {
	lister := &fakeLister{entries: []Entry{{
		ID:        uuid.New(),
		Actor:     "api",
		Action:    ActionInvoiceCreated,
		Entity:    "invoice",
		EntityRef: "INV-2025-26-00001",
		Detail:    "grand total 1180.00",
		CreatedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}}}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), lister)
	r := chi.NewRouter()
	h.MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?limit=20", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 20, lister.limit)
	require.Contains(t, rec.Body.String(), "INV-2025-26-00001")
	require.Contains(t, rec.Body.String(), ActionInvoiceCreated)
}
