package models

import "time"

// CrawlState mirrors the Redis hash `crawl:{jobId}` described in spec §3/§4.6.
// It is read back into Go for convenience by the Progress Engine; the source of
// truth is always the Redis hash itself.
type CrawlState struct {
	JobID      string    `json:"job_id"`
	Enqueued   int64     `json:"enqueued"`
	Done       int64     `json:"done"`
	Succeeded  int64     `json:"succeeded"`
	Failed     int64     `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Finalized  bool      `json:"finalized"`
}

// RedisKey returns the `crawl:{jobId}` hash key for a job.
func RedisKey(jobID string) string {
	return "crawl:" + jobID
}
