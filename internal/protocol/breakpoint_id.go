package protocol

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// QueryKind is the nominal breakpoint query kind, spec.md §3.
type QueryKind int

const (
	ByURL QueryKind = iota
	ByURLRegex
	ByLocation
)

func (k QueryKind) String() string {
	switch k {
	case ByURL:
		return "url"
	case ByURLRegex:
		return "urlRegex"
	case ByLocation:
		return "location"
	default:
		return "unknown"
	}
}

// NominalKey is the (query_kind, url_or_pattern, line, column, condition)
// tuple whose fingerprint is the client-facing breakpointId.
type NominalKey struct {
	Kind          QueryKind
	URLOrPattern  string
	Line          int
	Column        int
	Condition     string
}

// Fingerprint derives the deterministic, unique-within-a-registry
// breakpointId. original_source's DebuggerImpl.cpp calls the equivalent
// GenerateKey() and uses it directly as the map key; this hashes the same
// tuple so the id is stable across calls with identical arguments (spec.md
// §8, "Fingerprint determinism") without leaking raw url/regex text (which
// may itself contain characters unsafe for direct concatenation into an id).
func (k NominalKey) Fingerprint() string {
	raw := fmt.Sprintf("%s\x00%s\x00%d\x00%d\x00%s", k.Kind, k.URLOrPattern, k.Line, k.Column, k.Condition)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
