package domain

// RecordHint is what the storage layer knows about where a record was written.
// BlockNumber is approximate and may be stale; 0 means unknown.
type RecordHint struct {
	RecordID    uint64
	BlockNumber uint64
}

// HasBlock reports whether the hint carries a usable block number.
func (h RecordHint) HasBlock() bool {
	return h.BlockNumber > 0
}

// ResolvedHash is the outcome of a hash lookup. TxHash is empty when the
// originating transaction could not be found.
type ResolvedHash struct {
	RecordID uint64
	TxHash   string
}

func (r ResolvedHash) Resolved() bool {
	return r.TxHash != ""
}

type EventKind string

const (
	EventKindCreated EventKind = "created"
	EventKindEdited  EventKind = "edited"
)

// CreationEvent is a decoded creation/edit log for a record.
type CreationEvent struct {
	RecordID    uint64
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
	Kind        EventKind
}

// Record is one entry returned by the storage contract.
type Record struct {
	ID          uint64 `json:"id"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	BlockNumber uint64 `json:"block_number"`
	Deleted     bool   `json:"deleted"`
}

// Hint derives the lookup hint for a stored record.
func (r Record) Hint() RecordHint {
	return RecordHint{RecordID: r.ID, BlockNumber: r.BlockNumber}
}
