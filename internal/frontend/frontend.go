// Package frontend is the boundary to the external parser: it defines the
// per-library input bundle and decodes the parser's JSON tree format into
// declaration trees.
package frontend

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/declbridge/declbridge/internal/decltree"
)

// LibraryInput is everything the converter needs for one library: its name,
// the names of libraries it depends on, and its parsed files in manifest
// order. SourceHash fingerprints the inputs for the export cache.
type LibraryInput struct {
	Name         string
	Dependencies []string
	Files        []*decltree.SourceFile
	SourceHash   string
}

// Fingerprint hashes raw parser output for cache freshness checks.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
