package interfaces

import "context"

// Format is a requested output kind (spec glossary).
type Format string

const (
	FormatRawHTML           Format = "rawHtml"
	FormatHTML              Format = "html"
	FormatMarkdown          Format = "markdown"
	FormatText              Format = "text"
	FormatScreenshot        Format = "screenshot"
	FormatScreenshotFull    Format = "screenshot@fullPage"
	FormatJSON              Format = "json"
)

// ExtractionError wraps the step that failed inside C7 (spec §4.7/§7).
type ExtractionError struct {
	Step    string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string { return e.Step + ": " + e.Message }
func (e *ExtractionError) Unwrap() error { return e.Cause }

// ExtractionRecord is C7's assembled output (spec §4.7 step 5).
type ExtractionRecord struct {
	Title      string
	RawHTML    string `json:"rawHtml,omitempty"`
	Metadata   map[string]string
	Formats    map[Format]interface{}
	Timestamp  int64
}

// ExtractOptions carries the per-request knobs that shape format production
// (spec §4.7 step 2's include/exclude tag filtering, plus the optional C8
// forwarding request).
type ExtractOptions struct {
	Formats     []Format
	IncludeTags []string
	ExcludeTags []string
	JSON        *JSONExtractRequest
}

// Extractor runs the concurrent format pipeline over an EngineContext (C7).
type Extractor interface {
	Extract(ctx context.Context, ec *EngineContext, opts ExtractOptions) (*ExtractionRecord, error)
}

// JSONExtractRequest is the subset of JSONOptions the extractor forwards to
// C8 (kept separate from models.JSONOptions to avoid the extractor package
// depending on the full request DTO).
type JSONExtractRequest struct {
	SchemaJSON string
	Prompt     string
	Model      string
	CostLimit  float64
}
