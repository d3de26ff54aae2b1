package models

// CrawlOptions carries the per-job Crawl Frontier (C5) configuration, snapshotted
// onto every EngineRequest's UserData so a worker never needs to look it up again.
type CrawlOptions struct {
	MaxDepth              int      `json:"max_depth"`
	MaxDiscoveryDepth      int      `json:"max_discovery_depth"`
	Limit                 int      `json:"limit"`
	Strategy              string   `json:"strategy"` // all | same-domain | same-hostname | same-origin
	IncludePaths          []string `json:"include_paths,omitempty"`
	ExcludePaths          []string `json:"exclude_paths,omitempty"`
	IgnoreSitemap         bool     `json:"ignore_sitemap"`
	IgnoreQueryParameters bool     `json:"ignore_query_parameters"`
	DelayMS               int      `json:"delay_ms"`
	AllowExternalLinks    bool     `json:"allow_external_links"`
	AllowSubdomains       bool     `json:"allow_subdomains"`

	// ScrapeOptions, when set, is carried onto every page request Frontier
	// enqueues for this job, so C7/C8 extraction is configured consistently
	// across the whole crawl rather than defaulting per-page.
	ScrapeOptions *ScrapeOptions `json:"scrape_options,omitempty"`
}

// ScrapeOptions carries the per-request C7 extraction options (spec §6 scrape payload).
type ScrapeOptions struct {
	Formats      []string        `json:"formats,omitempty"`
	Timeout      int             `json:"timeout,omitempty"` // seconds, bounded 1..600
	Retry        bool            `json:"retry,omitempty"`
	WaitFor      int             `json:"wait_for,omitempty"` // milliseconds
	IncludeTags  []string        `json:"include_tags,omitempty"`
	ExcludeTags  []string        `json:"exclude_tags,omitempty"`
	JSONOptions  *JSONOptions    `json:"json_options,omitempty"`
	Proxy        string          `json:"proxy,omitempty"`
	FullPage     bool            `json:"full_page,omitempty"`
}

// JSONOptions configures the LLM schema-constrained extraction step (C8).
type JSONOptions struct {
	Schema    *ExtractSchema `json:"schema,omitempty"`
	Prompt    string         `json:"prompt,omitempty"`
	Model     string         `json:"model,omitempty"`
	CostLimit float64        `json:"cost_limit,omitempty"`
}

// UserData is carried on every EngineRequest so a worker can route it without a
// second lookup against the broker (mirrors the teacher's queue.Message.user_data).
type UserData struct {
	JobID        string        `json:"job_id"`
	QueueName    string        `json:"queue_name"`
	Kind         string        `json:"kind"`
	Depth        int           `json:"depth"`
	ParentURL    string        `json:"parent_url,omitempty"`
	Options      ScrapeOptions `json:"options"`
	CrawlOptions *CrawlOptions `json:"crawl_options,omitempty"`

	// SearchStage distinguishes the two request shapes C9 enqueues onto the
	// search queue: "serp" (fetch a results page, parse organic listings) and
	// "page" (fetch one organic result URL for optional C7/C8 extraction).
	// Empty for every other kind.
	SearchStage string `json:"search_stage,omitempty"`
}

// EngineRequest is the scheduler's unit of work (spec §3).
type EngineRequest struct {
	URL        string   `json:"url"`
	UniqueKey  string   `json:"unique_key"`
	UserData   UserData `json:"user_data"`
	Attempt    int      `json:"attempt"`
}
