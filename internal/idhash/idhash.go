package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"equity-events-lab/internal/domain"
)

// ComputeRecordID computes a deterministic record_id using SHA256 over the
// record's identity: dataset, asset, knowledge date, and every event-date
// field and payload value in lexical field order. Two ingests of the same
// vendor row always collide, which is what makes append-only dedup work.
// Returns hex-encoded hash (64 characters).
func ComputeRecordID(r *domain.EventRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s", r.Dataset, r.AssetID, r.KnowledgeDate)

	fields := make([]string, 0, len(r.EventDates))
	for f := range r.EventDates {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if d := r.EventDates[f]; d != nil {
			fmt.Fprintf(&b, "|%s=%s", f, *d)
		} else {
			fmt.Fprintf(&b, "|%s=", f)
		}
	}

	payloads := make([]string, 0, len(r.Payload))
	for f := range r.Payload {
		payloads = append(payloads, f)
	}
	sort.Strings(payloads)
	for _, f := range payloads {
		fmt.Fprintf(&b, "|%s=%g", f, r.Payload[f])
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}
