package types

import (
	"strings"

	"github.com/google/uuid"
)

// JoinUUIDs renders ids as a comma-separated list for gateway metadata.
func JoinUUIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// ParseUUIDList reverses JoinUUIDs, skipping malformed entries.
func ParseUUIDList(raw string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
