package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrDescriptorExists  = errors.New("schema: message id already registered")
	ErrDescriptorNil     = errors.New("schema: descriptor is nil")
	ErrInvalidDescriptor = errors.New("schema: invalid descriptor")
)

// Registry maps message ids to descriptors. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items map[uint32]*Descriptor
}

// NewRegistry creates a registry holding descs. It panics on an invalid
// or duplicate descriptor, so it is meant for static tables.
func NewRegistry(descs ...*Descriptor) *Registry {
	r := &Registry{items: make(map[uint32]*Descriptor, len(descs))}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds d after checking its shape.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return ErrDescriptorNil
	}
	if err := checkDescriptor(d); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[d.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDescriptorExists, d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// Merge returns a new registry holding base's descriptors, with descs
// replacing any that share an id.
func Merge(base *Registry, descs ...*Descriptor) (*Registry, error) {
	out := &Registry{items: make(map[uint32]*Descriptor, base.Len()+len(descs))}
	base.mu.RLock()
	for id, d := range base.items {
		out.items[id] = d
	}
	base.mu.RUnlock()
	for _, d := range descs {
		if d == nil {
			return nil, ErrDescriptorNil
		}
		if err := checkDescriptor(d); err != nil {
			return nil, err
		}
		out.items[d.ID] = d
	}
	return out, nil
}

func (r *Registry) Lookup(id uint32) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	return d, ok
}

// CRCExtra returns the checksum seed for id.
func (r *Registry) CRCExtra(id uint32) (byte, bool) {
	d, ok := r.Lookup(id)
	if !ok {
		return 0, false
	}
	return d.CRCExtra, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// IDs returns registered message ids in ascending order.
func (r *Registry) IDs() []uint32 {
	r.mu.RLock()
	ids := make([]uint32, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ValidationError reports a packet whose shape does not fit its
// descriptor.
type ValidationError struct {
	MessageID uint32
	Length    int
	Reason    string
}

func (e ValidationError) Error() string {
	if e.Reason == ReasonUnknownMessage {
		return fmt.Sprintf("schema: message_id=%d: %s", e.MessageID, e.Reason)
	}
	return fmt.Sprintf("schema: message_id=%d length=%d: %s", e.MessageID, e.Length, e.Reason)
}

const (
	ReasonUnknownMessage = "unknown message id"
	ReasonLengthMismatch = "payload length does not match base length"
	ReasonTooLong        = "payload longer than max length"
)

// Validate checks that a payload of length n is plausible for msgID. v1
// payloads carry exactly the base fields. v2 payloads may be truncated
// but never exceed the extended length.
func (r *Registry) Validate(v protocol.Version, msgID uint32, n int) error {
	d, ok := r.Lookup(msgID)
	if !ok {
		log.Debug().Uint32("msg_id", msgID).Msg("schema.Validate unknown message")
		return ValidationError{MessageID: msgID, Length: n, Reason: ReasonUnknownMessage}
	}
	switch v {
	case protocol.V1:
		if n != d.BaseLength() {
			return ValidationError{MessageID: msgID, Length: n, Reason: ReasonLengthMismatch}
		}
	default:
		if n > d.MaxLength() {
			return ValidationError{MessageID: msgID, Length: n, Reason: ReasonTooLong}
		}
	}
	return nil
}

func checkDescriptor(d *Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: message %d has no name", ErrInvalidDescriptor, d.ID)
	}
	if d.ID > protocol.MaxMessageIDV2 {
		return fmt.Errorf("%w: %s id %d exceeds 24 bits", ErrInvalidDescriptor, d.Name, d.ID)
	}
	seen := make(map[string]struct{}, len(d.Fields))
	extension := false
	for _, f := range d.Fields {
		if f.Type.Size() == 0 {
			return fmt.Errorf("%w: %s.%s has invalid type", ErrInvalidDescriptor, d.Name, f.Name)
		}
		if f.ArrayLen < 0 || f.ArrayLen > 255 {
			return fmt.Errorf("%w: %s.%s array length %d", ErrInvalidDescriptor, d.Name, f.Name, f.ArrayLen)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: %s.%s declared twice", ErrInvalidDescriptor, d.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if extension && !f.Extension {
			return fmt.Errorf("%w: %s.%s follows an extension field", ErrInvalidDescriptor, d.Name, f.Name)
		}
		extension = extension || f.Extension
	}
	if d.MaxLength() > 255 {
		return fmt.Errorf("%w: %s payload is %d bytes", ErrInvalidDescriptor, d.Name, d.MaxLength())
	}
	return nil
}
