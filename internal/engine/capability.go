package engine

// Capability carries the ambient authorization state for one operation.
// The access-control and pause collaborators live outside the core; the
// engine receives their verdict as an explicit value instead of reading
// global flags, which keeps every entry point a pure function of its
// arguments.
type Capability struct {
	// Actor is the caller's account identity.
	Actor string

	// Owner reports whether the caller passed the owner/governor gate.
	Owner bool

	// Paused reports whether the kill-switch is engaged. When set, every
	// state-changing operation aborts.
	Paused bool
}

// gate validates the capability for an operation. Privileged operations
// additionally require the owner verdict.
func (c Capability) gate(privileged bool) error {
	if c.Paused {
		return ErrPaused
	}
	if privileged && !c.Owner {
		return ErrNotOwner
	}
	if c.Actor == "" {
		return ErrMissingActor
	}
	return nil
}
