package httpapi

import "net/http"

// setupRoutes binds every spec §6 endpoint onto a bare ServeMux, the same
// flat-registration style the teacher uses in its own setupRoutes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/v1/scrape", s.handleScrape)
	mux.HandleFunc("/v1/crawl", s.handleCrawlCreate)
	mux.HandleFunc("/v1/crawl/", s.handleCrawlSubroute) // /{jobId}, /{jobId}/status
	mux.HandleFunc("/v1/search", s.handleSearch)

	return mux
}
