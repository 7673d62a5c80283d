package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vietddude/chainreader/internal/core/domain"
)

// Default event signatures of the record store. The record id is the first
// indexed argument.
const (
	DefaultCreatedEvent = "RecordCreated(uint256,address)"
	DefaultEditedEvent  = "RecordEdited(uint256,address)"
)

// EventTopic returns topic0 for an event signature.
func EventTopic(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

// RecordIDTopic encodes a record id as an indexed uint256 topic.
func RecordIDTopic(id uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(id))
}

// EventSet maps topic0 values to the kind of record event they announce.
type EventSet struct {
	kinds  map[common.Hash]domain.EventKind
	topics []common.Hash
}

// NewEventSet builds the set from signatures. Empty created falls back to
// DefaultCreatedEvent; empty edited disables edit events.
func NewEventSet(created, edited string) EventSet {
	if created == "" {
		created = DefaultCreatedEvent
	}
	s := EventSet{kinds: make(map[common.Hash]domain.EventKind)}
	s.add(EventTopic(created), domain.EventKindCreated)
	if edited != "" {
		s.add(EventTopic(edited), domain.EventKindEdited)
	}
	return s
}

// DefaultEventSet covers RecordCreated and RecordEdited.
func DefaultEventSet() EventSet {
	return NewEventSet(DefaultCreatedEvent, DefaultEditedEvent)
}

func (s *EventSet) add(topic common.Hash, kind domain.EventKind) {
	if _, ok := s.kinds[topic]; ok {
		return
	}
	s.kinds[topic] = kind
	s.topics = append(s.topics, topic)
}

// Topics returns the topic0 alternatives, created first.
func (s EventSet) Topics() []common.Hash {
	return append([]common.Hash(nil), s.topics...)
}

// Kind returns the event kind for topic0.
func (s EventSet) Kind(topic common.Hash) (domain.EventKind, bool) {
	k, ok := s.kinds[topic]
	return k, ok
}

// DecodeCreationEvent extracts a record event from a log. Removed logs,
// unknown topics and ids that do not fit uint64 are rejected.
func DecodeCreationEvent(l types.Log, events EventSet) (domain.CreationEvent, bool) {
	if l.Removed || len(l.Topics) < 2 {
		return domain.CreationEvent{}, false
	}
	kind, ok := events.Kind(l.Topics[0])
	if !ok {
		return domain.CreationEvent{}, false
	}
	id := new(big.Int).SetBytes(l.Topics[1].Bytes())
	if !id.IsUint64() {
		return domain.CreationEvent{}, false
	}

	return domain.CreationEvent{
		RecordID:    id.Uint64(),
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Hex(),
		LogIndex:    l.Index,
		Kind:        kind,
	}, true
}
