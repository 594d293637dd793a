package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pastpapers/models"
)

func main() {
	apiURL := os.Getenv("PASTPAPERS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := newServer(apiURL)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newServer registers the tools that proxy to the pastpapers HTTP API.
func newServer(apiURL string) *server.MCPServer {
	s := server.NewMCPServer(
		"pastpapers",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	listPapersTool := mcp.NewTool("list_papers",
		mcp.WithDescription("Scrape a past-paper category listing page and return the papers on it (title, url, description). Optionally filter by year or by a title substring such as 'Marking Scheme'."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The listing (category) page URL"),
		),
		mcp.WithNumber("year",
			mcp.Description("Keep only papers whose title contains this year"),
		),
		mcp.WithString("type",
			mcp.Description("Keep only papers whose title contains this text, case-insensitively"),
		),
	)
	s.AddTool(listPapersTool, handleListPapers(apiURL))

	downloadPapersTool := mcp.NewTool("download_papers",
		mcp.WithDescription("Visit each paper page in order with a headless browser, find its download link and save the PDF on the server. Returns one line per page with the saved path or the failure reason."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Paper page URLs, processed in order"),
		),
	)
	s.AddTool(downloadPapersTool, handleDownloadPapers(apiURL))

	return s
}

// apiPost sends a POST request to the pastpapers API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errorText(prefix string, detail *models.ErrorDetail) string {
	if detail == nil {
		return prefix
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}

func handleListPapers(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.ListingRequest{
			URL:  url,
			Year: request.GetInt("year", 0),
			Type: request.GetString("type", ""),
		}

		respBody, err := apiPost(ctx, client, apiURL, "/api/v1/listing", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing request failed: %v", err)), nil
		}

		var resp models.ListingResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse listing response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("listing failed", resp.Error)), nil
		}

		return mcp.NewToolResultText(formatPapers(resp.Papers)), nil
	}
}

func formatPapers(papers []models.Paper) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d papers:\n\n", len(papers)))
	for i, p := range papers {
		sb.WriteString(fmt.Sprintf("%d. %s\n   %s\n", i+1, p.Title, p.URL))
		if p.Description != "" {
			sb.WriteString("   " + p.Description + "\n")
		}
	}
	return sb.String()
}

func handleDownloadPapers(apiURL string) server.ToolHandlerFunc {
	// A run visits every page sequentially with per-strategy timeouts.
	client := &http.Client{Timeout: 60 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, "/api/v1/download", models.DownloadRequest{URLs: urls})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("download request failed: %v", err)), nil
		}

		var resp models.DownloadResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse download response: %v", err)), nil
		}
		if !resp.Success || resp.Summary == nil {
			return mcp.NewToolResultError(errorText("download failed", resp.Error)), nil
		}

		return mcp.NewToolResultText(formatSummary(resp.Summary)), nil
	}
}

func formatSummary(sum *models.RunSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d pages: %d saved, %d failed, %d skipped\n\n", sum.Total, sum.Saved, sum.Failed, sum.Skipped))
	for _, o := range sum.Outcomes {
		switch {
		case o.Saved():
			sb.WriteString(fmt.Sprintf("[%d] SAVED %s (%s)\n", o.Index, o.Path, o.Strategy))
		case o.Error != nil:
			sb.WriteString(fmt.Sprintf("[%d] %s %s: [%s] %s\n", o.Index, o.State, o.URL, o.Error.Code, o.Error.Message))
		default:
			sb.WriteString(fmt.Sprintf("[%d] %s %s\n", o.Index, o.State, o.URL))
		}
	}
	return sb.String()
}
