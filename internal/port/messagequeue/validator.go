package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectContentCopy:
		var p ContentCopyPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.From == "" || p.To == "" {
			return fmt.Errorf("schema validation failed for %s: from and to are required", subject)
		}
	case SubjectContentDelete:
		var p ContentDeletePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.EnvironmentID == "" {
			return fmt.Errorf("schema validation failed for %s: environment_id is required", subject)
		}
	}
	return nil
}
