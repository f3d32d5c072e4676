package synthesis

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NodeIdentity derives a knowledge node's identity from (title, domain).
// The hash is the idempotency anchor for the whole ingestion engine: the
// same pair always yields the same identity, so re-ingesting a claim merges
// into the existing node instead of minting a new one. Title matching is
// case- and whitespace-insensitive; domain is case-insensitive.
func NodeIdentity(title, domainName string) string {
	normTitle := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	normDomain := strings.TrimSpace(strings.ToLower(domainName))
	sum := sha256.Sum256([]byte(normTitle + "|" + normDomain))
	return hex.EncodeToString(sum[:])
}
