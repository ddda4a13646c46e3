package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook and dashboard server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health and Google Sheets connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <text>",
	Short: "Run a manual test extraction against the running server",
	Long: `Run a manual test extraction against the running server.

The text goes through the same model call as inbound webhook messages, but
failures are reported instead of swallowed.

Example:
  linesheet extract "โอนแล้ว 1,500 บาท order SO-4412"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd.Context(), args[0])
	},
}

func showStatus(ctx context.Context) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		printStatus("Server", "running at %s", client.baseURL)
	} else {
		printStatus("Server", "error (HTTP %d)", resp.StatusCode)
	}

	connResp, err := client.get(ctx, "/api/connection")
	if err != nil {
		return err
	}
	var conn struct {
		Connected bool   `json:"connected"`
		Message   string `json:"message"`
		Details   string `json:"details"`
		SheetID   string `json:"sheetId"`
	}
	if err := decodeJSON(connResp, &conn); err != nil {
		return err
	}

	if conn.Connected {
		printSuccess("Google Sheets: %s", conn.Message)
	} else {
		printError("Google Sheets: %s", conn.Message)
		if conn.Details != "" {
			printStatus("Details", "%s", conn.Details)
		}
	}
	if conn.SheetID != "" {
		printStatus("Sheet ID", "%s", conn.SheetID)
	}
	return nil
}

func runExtract(ctx context.Context, text string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.post(ctx, "/api/extract", map[string]string{"text": text})
	if err != nil {
		return err
	}

	var result struct {
		Items []struct {
			ID         string  `json:"id"`
			Value      string  `json:"value"`
			Type       string  `json:"type"`
			Context    string  `json:"context"`
			Confidence float64 `json:"confidence"`
		} `json:"items"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}

	if len(result.Items) == 0 {
		printStatus("Result", "no fields extracted")
		return nil
	}
	for _, item := range result.Items {
		fmt.Printf("  %s  %s  (confidence %.2f)  %s\n",
			colorize(colorBold, item.Type), item.Value, item.Confidence, item.Context)
	}
	return nil
}
