// Package tenant defines the tenant reference used to partition environments and content.
package tenant

// DefaultID is the single-tenant default used when no tenant is supplied.
const DefaultID = "root"

// DefaultName is the display name paired with DefaultID.
const DefaultName = "Root"

// Ref identifies the tenant a record belongs to or was created by.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Default returns the reference for the single-tenant default.
func Default() Ref {
	return Ref{ID: DefaultID, Name: DefaultName}
}
