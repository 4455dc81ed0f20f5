// authz/gate.go
package authz

// Gate is a synchronous capability pre-check run before any mutating
// store call is dispatched. A nil return allows the mutation; a non-nil
// error (typically a PermissionDenied) short-circuits it without touching
// the repository port.
type Gate func(c Capability) error

// AllowAll is a gate that permits everything. Useful for tests and for
// embedding hosts that gate elsewhere.
func AllowAll(Capability) error { return nil }
