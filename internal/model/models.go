package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Proxy is one raw upstream candidate as ingested from a list source.
// IP and Port stay strings: ports arrive as text columns and are never
// used numerically before the synthesizer validates them.
type Proxy struct {
	ID        uint   `gorm:"primaryKey"`
	Hash      string `gorm:"uniqueIndex"`
	Source    string
	CreatedAt time.Time

	IP       string
	Port     string
	Country  string
	Provider string

	Valid     bool
	CheckedAt time.Time
}

// CalculateHash derives the dedup key for a proxy endpoint.
// Country and provider are labels, not identity, so they stay out.
func (p *Proxy) CalculateHash() string {
	sig := strings.ToLower(strings.TrimSpace(p.IP)) + "|" + strings.TrimSpace(p.Port)
	sum := sha256.Sum256([]byte(sig))
	return hex.EncodeToString(sum[:])
}
