package domain

// ChangeKind identifies the type of a persistence-layer change event.
type ChangeKind string

const (
	ChangeCreated     ChangeKind = "program_created"
	ChangeUpdated     ChangeKind = "program_updated"
	ChangeDeleted     ChangeKind = "program_deleted"
	ChangeBulkCreated ChangeKind = "programs_bulk_created"
	ChangeBulkUpdated ChangeKind = "programs_bulk_updated"
	ChangeBulkDeleted ChangeKind = "programs_bulk_deleted"
)

// ChangeEvent is a notification from the persistence layer that the program
// set changed. The payload travels as JSON over the Postgres NOTIFY channel
// and the Redis event bus.
type ChangeEvent struct {
	Kind     ChangeKind       `json:"kind"`
	Program  *FundingProgram  `json:"program,omitempty"`
	Programs []FundingProgram `json:"programs,omitempty"`
	Name     string           `json:"name,omitempty"`
	Flags    map[string]bool  `json:"flags,omitempty"`
}

// Flag returns the named context flag, or def when unset.
func (e *ChangeEvent) Flag(name string, def bool) bool {
	if e.Flags == nil {
		return def
	}
	v, ok := e.Flags[name]
	if !ok {
		return def
	}
	return v
}
