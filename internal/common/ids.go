package common

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewJobID returns a fresh UUID for a Job (spec §3: job_id (UUID)).
func NewJobID() string {
	return uuid.New().String()
}

// NewUniqueKey returns a random key for an EngineRequest's unique_key field.
func NewUniqueKey() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
