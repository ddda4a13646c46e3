package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"linesheet/internal/extract"
	"linesheet/internal/sheets"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Extractor is the extraction capability used by the HTTP layer. The
// ingestion path never fails; the detailed path surfaces errors for the
// manual test mode.
type Extractor interface {
	Extract(ctx context.Context, text string) []extract.Field
	ExtractDetailed(ctx context.Context, text string) ([]extract.DetailedField, error)
}

// RowStore is the tabular storage capability backing ingestion and the
// dashboard.
type RowStore interface {
	Append(ctx context.Context, rows []sheets.Row) error
	ReadRecent(ctx context.Context, limit int) ([]sheets.Row, error)
	Probe(ctx context.Context) error
	SheetID() string
}

type Deps struct {
	Extractor Extractor
	Store     RowStore
	// ChannelSecret enables webhook signature verification when non-empty.
	ChannelSecret string
	// Location is the fixed zone for human-readable row timestamps.
	Location *time.Location
}

// NewHandler builds the full HTTP surface: the inbound webhook plus the
// dashboard's read-only endpoints.
func NewHandler(deps Deps) http.Handler {
	if deps.Location == nil {
		deps.Location = time.UTC
	}

	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.With(VerifySignature(deps.ChannelSecret)).Post("/webhook", handleWebhook(deps))
		r.Get("/connection", handleConnection(deps))
		r.Get("/messages", handleMessages(deps))
		r.Post("/extract", handleExtract(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
