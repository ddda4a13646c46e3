package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"linesheet/internal/extract"
	"linesheet/internal/sheets"
)

const dashboardMessageLimit = 20

type connectionResponse struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	SheetID   string `json:"sheetId,omitempty"`
}

// handleConnection reports storage reachability. Its job is to describe
// failure, not to fail itself, so it answers 200 either way.
func handleConnection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sheetID := deps.Store.SheetID()

		if err := deps.Store.Probe(r.Context()); err != nil {
			slog.Warn("sheets connectivity check failed", "error", err)
			writeJSON(w, connectionResponse{
				Connected: false,
				Message:   classifyConnectionError(err),
				Details:   err.Error(),
				SheetID:   sheetID,
			})
			return
		}

		writeJSON(w, connectionResponse{
			Connected: true,
			Message:   "Google Sheets Connected Successfully",
			SheetID:   sheetID,
		})
	}
}

// classifyConnectionError maps a probe failure into one of the user-facing
// categories shown on the dashboard.
func classifyConnectionError(err error) string {
	if errors.Is(err, sheets.ErrCredentialsMissing) || errors.Is(err, sheets.ErrSheetIDMissing) {
		return "Missing Credentials"
	}

	var apiErr *googleapi.Error
	code := 0
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}
	msg := err.Error()

	switch {
	case code == http.StatusForbidden || strings.Contains(msg, "403"):
		return "Permission Denied (Check Share Settings)"
	case code == http.StatusNotFound || strings.Contains(msg, "404"):
		return "Spreadsheet Not Found (Check ID)"
	default:
		return "Connection Failed"
	}
}

type messageRecord struct {
	ID               int    `json:"id"`
	ReceivedAt       string `json:"received_at"`
	UserID           string `json:"user_id"`
	MessageText      string `json:"message_text"`
	ExtractedType    string `json:"extracted_type"`
	ExtractedValue   string `json:"extracted_value"`
	ExtractedContext string `json:"extracted_context"`
}

func handleMessages(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := deps.Store.ReadRecent(r.Context(), dashboardMessageLimit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to fetch data: %v", err)
			return
		}

		messages := make([]messageRecord, len(rows))
		for i, row := range rows {
			messages[i] = messageRecord{
				ID:               i,
				ReceivedAt:       row.Timestamp,
				UserID:           row.UserID,
				MessageText:      row.RawMessage,
				ExtractedType:    row.Category,
				ExtractedValue:   row.Value,
				ExtractedContext: row.Context,
			}
		}

		writeJSON(w, map[string]any{"messages": messages})
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

// handleExtract is the manual test mode: same extraction capability as the
// webhook path, but failures surface because a human is present to retry.
func handleExtract(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		items, err := deps.Extractor.ExtractDetailed(r.Context(), req.Text)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "extraction failed: %v", err)
			return
		}
		if items == nil {
			items = []extract.DetailedField{}
		}

		writeJSON(w, map[string]any{"items": items})
	}
}
