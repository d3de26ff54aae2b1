package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/anycrawl/anycrawl-core/internal/app"
	"github.com/anycrawl/anycrawl-core/internal/broker"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

// envelope is the uniform success/failure response shape every synchronous
// endpoint uses (spec §6/§7: "{success:false, error, message, data?}").
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, envelope{Success: false, Error: errCode, Message: message})
}

func engineOrDefault(raw string) interfaces.EngineName {
	if raw == "" {
		return interfaces.EngineStatic
	}
	return interfaces.EngineName(raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScrape implements POST /v1/scrape (synchronous, spec §6).
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result, err := s.app.Scrape(r.Context(), req.URL, req.ScrapeOptions, engineOrDefault(req.Engine), apiKeyID(r), "")
	if err != nil {
		data := map[string]interface{}{"url": req.URL, "status": "failed"}
		if result != nil {
			data["jobId"] = result.JobID
			if result.Record != nil {
				mergeRecordFormats(data, result.Record)
			}
		}
		writeJSON(w, http.StatusOK, envelope{Success: false, Error: "scrape_failed", Message: err.Error(), Data: data})
		return
	}

	data := map[string]interface{}{
		"url":       req.URL,
		"status":    "completed",
		"jobId":     result.JobID,
		"title":     result.Record.Title,
		"metadata":  result.Record.Metadata,
		"timestamp": result.Record.Timestamp,
	}
	mergeRecordFormats(data, result.Record)

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// mergeRecordFormats copies a record's requested output formats into the
// response data map (spec §6), shared by both the success and best-effort
// failure paths of handleScrape.
func mergeRecordFormats(data map[string]interface{}, record *interfaces.ExtractionRecord) {
	for format, value := range record.Formats {
		switch format {
		case interfaces.FormatHTML:
			data["html"] = value
		case interfaces.FormatMarkdown:
			data["markdown"] = value
		case interfaces.FormatText:
			data["text"] = value
		case interfaces.FormatRawHTML:
			data["rawHtml"] = value
		case interfaces.FormatScreenshot, interfaces.FormatScreenshotFull:
			data["screenshot"] = value
		case interfaces.FormatJSON:
			data["json"] = value
		}
	}
}

// handleCrawlCreate implements POST /v1/crawl (async, spec §6).
func (s *Server) handleCrawlCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	job, err := s.app.Crawl(r.Context(), req.URL, req.crawlOptions(), req.ScrapeOptions, engineOrDefault(req.Engine), apiKeyID(r), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "crawl_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"job_id":  job.JobID,
		"status":  "created",
		"message": "crawl job accepted",
	})
}

// handleCrawlSubroute dispatches /v1/crawl/{jobId} and
// /v1/crawl/{jobId}/status by method and trailing path segment.
func (s *Server) handleCrawlSubroute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/crawl/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "job id required")
		return
	}
	jobID := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodGet:
		s.handleCrawlStatus(w, r, jobID)
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleCrawlResults(w, r, jobID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleCrawlCancel(w, r, jobID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	}
}

// handleCrawlStatus implements GET /v1/crawl/{jobId}/status.
func (s *Server) handleCrawlStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, _, err := s.app.CrawlStatus(r.Context(), jobID)
	if err != nil {
		writeNotFoundOrError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":       job.JobID,
		"status":       job.Status,
		"start_time":   job.CreatedAt,
		"expires_at":   job.ExpiresAt,
		"credits_used": job.CreditsUsed,
		"total":        job.Total,
		"completed":    job.Completed,
		"failed":       job.Failed,
	})
}

// handleCrawlResults implements GET /v1/crawl/{jobId}?skip=N.
func (s *Server) handleCrawlResults(w http.ResponseWriter, r *http.Request, jobID string) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	job, _, err := s.app.CrawlStatus(r.Context(), jobID)
	if err != nil {
		writeNotFoundOrError(w, err)
		return
	}

	results, total, next, err := s.app.CrawlResults(r.Context(), jobID, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "results_failed", err.Error())
		return
	}

	resp := map[string]interface{}{
		"success":     true,
		"status":      job.Status,
		"total":       total,
		"completed":   job.Completed,
		"creditsUsed": job.CreditsUsed,
		"data":        results,
	}
	if next != nil {
		resp["next"] = *next
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCrawlCancel implements DELETE /v1/crawl/{jobId}.
func (s *Server) handleCrawlCancel(w http.ResponseWriter, r *http.Request, jobID string) {
	err := s.app.CancelCrawl(r.Context(), jobID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "job cancelled"})
	case errors.Is(err, app.ErrJobAlreadyTerminal):
		writeError(w, http.StatusConflict, "already_terminal", "job has already finished")
	case errors.Is(err, broker.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such job")
	default:
		writeError(w, http.StatusInternalServerError, "cancel_failed", err.Error())
	}
}

// handleSearch implements POST /v1/search (spec §6).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	items, err := s.app.Search(r.Context(), interfaces.SearchRequest{
		Query:         req.Query,
		Engine:        req.Engine,
		Limit:         req.Limit,
		Offset:        req.Offset,
		Pages:         req.Pages,
		Lang:          req.Lang,
		Country:       req.Country,
		SafeSearch:    req.SafeSearch,
		ScrapeOptions: req.ScrapeOptions,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items})
}

func writeNotFoundOrError(w http.ResponseWriter, err error) {
	if errors.Is(err, broker.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "no such job")
		return
	}
	writeError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
}

// apiKeyID reads the caller's API key from the Authorization header, with
// any "Bearer " prefix trimmed; empty when absent (spec §6's optional
// api_key_id column).
func apiKeyID(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}
