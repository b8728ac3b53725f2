package notion

import (
	"strings"

	"github.com/google/uuid"
)

// CanonicalID normalizes a Notion object ID to the dashed lowercase UUID form.
// Notion accepts both the dashed and the 32-hex form; webhooks deliver the dashed one.
// Values that are not UUIDs are returned trimmed but otherwise unchanged.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return parsed.String()
}
