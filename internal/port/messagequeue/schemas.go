package messagequeue

// ContentCopyPayload is the schema for environments.content.copy messages.
type ContentCopyPayload struct {
	TenantID string `json:"tenant_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// ContentDeletePayload is the schema for environments.content.delete messages.
type ContentDeletePayload struct {
	TenantID      string `json:"tenant_id"`
	EnvironmentID string `json:"environment_id"`
}
