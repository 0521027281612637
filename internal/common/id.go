package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewRunID generates a unique crawl run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// DocumentID derives a stable document ID from a canonical URL.
// The same URL always produces the same ID.
func DocumentID(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])[:16]
}

// ChunkID derives a chunk ID from its document ID and ordinal position
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_%04d", docID, index)
}
