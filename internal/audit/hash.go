package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows a future
// change of algorithm without colliding with stored hashes.
const (
	DomainResult     = "auditview/result/v1"
	DomainTranscript = "auditview/transcript/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the domain-separated SHA-256 of a JSON document's
// canonical form. Two documents that differ only in key order, whitespace
// or number spelling hash the same.
func ContentHash(domain string, doc []byte) (string, error) {
	v, err := UnmarshalValue(doc)
	if err != nil {
		return "", fmt.Errorf("ContentHash: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// ResultHash hashes an evaluation-result document.
func ResultHash(doc []byte) (string, error) {
	return ContentHash(DomainResult, doc)
}

// TranscriptHash hashes a transcript document.
func TranscriptHash(doc []byte) (string, error) {
	return ContentHash(DomainTranscript, doc)
}
