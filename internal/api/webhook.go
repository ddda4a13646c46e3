package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"linesheet/internal/sheets"
)

const rowTimestampFormat = "02/01/2006 15:04:05"

// Event is one inbound envelope from the messaging provider. The provider
// may deliver several events in a single webhook call.
type Event struct {
	Type    string `json:"type"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
	Source struct {
		UserID string `json:"userId"`
	} `json:"source"`
}

type webhookRequest struct {
	Events []Event `json:"events"`
}

// handleWebhook ingests a batch of chat events. It always answers 200: the
// provider treats anything else as "redeliver", and redelivering a message
// that failed on an internal logic error would duplicate rows forever. Losing
// a message when the append fails is the accepted side of that tradeoff.
func handleWebhook(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req webhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("decoding webhook body failed", "error", err)
			writeJSON(w, map[string]string{"status": "error", "message": "Internal Error"})
			return
		}

		// Fan out over the batch; events share no state, so no locking.
		// A plain Group (no derived context) lets every event run to
		// completion even when a sibling fails.
		var g errgroup.Group
		for _, ev := range req.Events {
			if ev.Type != "message" || ev.Message.Type != "text" {
				continue
			}
			g.Go(func() error {
				return processEvent(r.Context(), deps, ev)
			})
		}
		if err := g.Wait(); err != nil {
			slog.Error("webhook event processing failed", "error", err)
		}

		writeJSON(w, map[string]string{"status": "ok"})
	}
}

// processEvent extracts fields from one message and appends its rows in a
// single write, keeping rows of the same message contiguous in the sheet.
func processEvent(ctx context.Context, deps Deps, ev Event) error {
	timestamp := time.Now().In(deps.Location).Format(rowTimestampFormat)
	userID := ev.Source.UserID
	text := ev.Message.Text

	slog.Info("processing message", "user_id", userID, "preview", preview(text))

	fields := deps.Extractor.Extract(ctx, text)

	var rows []sheets.Row
	if len(fields) == 0 {
		// Nothing extractable: still log the raw message.
		rows = []sheets.Row{sheets.NoDataRow(timestamp, userID, text)}
	} else {
		rows = make([]sheets.Row, len(fields))
		for i, f := range fields {
			rows[i] = sheets.Row{
				Timestamp:  timestamp,
				UserID:     userID,
				RawMessage: text,
				Category:   f.Category,
				Value:      f.Value,
				Context:    f.Context,
			}
		}
	}

	if err := deps.Store.Append(ctx, rows); err != nil {
		return fmt.Errorf("appending rows for %s: %w", userID, err)
	}
	return nil
}

func preview(text string) string {
	const n = 20
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
