package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const canonicalUUIDLength = 36

// IsValidUUID4 reports whether value is a string holding a version 4, RFC
// 4122 UUID in canonical lowercase hyphenated form. Any other value, including
// non-string types and nil, is rejected.
func IsValidUUID4(value any) bool {
	text, ok := value.(string)
	if !ok || len(text) != canonicalUUIDLength {
		return false
	}
	parsed, err := uuid.Parse(text)
	if err != nil {
		return false
	}
	if parsed.Version() != 4 || parsed.Variant() != uuid.RFC4122 {
		return false
	}
	return parsed.String() == text
}

// ValidateEntityID converts a loosely typed identifier into an entity id.
func ValidateEntityID(value any) (string, error) {
	text, ok := value.(string)
	if !ok {
		return "", NewValidationError("entity_id", "entity id must be a string", describeValue(value))
	}
	if strings.TrimSpace(text) == "" {
		return "", NewValidationError("entity_id", "entity id is required", text)
	}
	if !IsValidUUID4(text) {
		return "", NewValidationError("entity_id", "entity id must be a valid uuid4", text)
	}
	return text, nil
}

// ValidateLinkID converts a loosely typed link identifier into a link id.
func ValidateLinkID(value any) (string, error) {
	text, ok := value.(string)
	if !ok {
		return "", NewValidationError("link_id", "link id must be a string", describeValue(value))
	}
	if strings.TrimSpace(text) == "" {
		return "", NewValidationError("link_id", "link id is required", text)
	}
	return text, nil
}

func describeValue(value any) any {
	if value == nil {
		return nil
	}
	switch value.(type) {
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return value
	default:
		return fmt.Sprintf("%T", value)
	}
}
