package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/danmuck/mavctl/internal/protocol/crc"
)

// FieldType is a MAVLink primitive field type.
type FieldType uint8

const (
	TypeInvalid FieldType = iota
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat
	TypeDouble
	TypeChar
)

var typeNames = map[FieldType]string{
	TypeInt8:   "int8_t",
	TypeUint8:  "uint8_t",
	TypeInt16:  "int16_t",
	TypeUint16: "uint16_t",
	TypeInt32:  "int32_t",
	TypeUint32: "uint32_t",
	TypeInt64:  "int64_t",
	TypeUint64: "uint64_t",
	TypeFloat:  "float",
	TypeDouble: "double",
	TypeChar:   "char",
}

// String returns the dialect spelling used in checksum seeds.
func (t FieldType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "invalid(" + strconv.Itoa(int(t)) + ")"
}

// Size is the wire size of one element.
func (t FieldType) Size() int {
	switch t {
	case TypeInt8, TypeUint8, TypeChar:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat:
		return 4
	case TypeInt64, TypeUint64, TypeDouble:
		return 8
	default:
		return 0
	}
}

// ParseFieldType accepts the dialect spelling, optionally with an array
// suffix such as "char[16]". The heartbeat alias uint8_t_mavlink_version
// maps to uint8_t.
func ParseFieldType(s string) (FieldType, int, error) {
	s = strings.TrimSpace(s)
	arrayLen := 0
	if open := strings.IndexByte(s, '['); open >= 0 {
		if !strings.HasSuffix(s, "]") {
			return TypeInvalid, 0, fmt.Errorf("schema: malformed array type %q", s)
		}
		n, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil || n <= 0 || n > 255 {
			return TypeInvalid, 0, fmt.Errorf("schema: invalid array length in %q", s)
		}
		arrayLen = n
		s = s[:open]
	}
	s = strings.TrimSuffix(s, "_mavlink_version")
	for t, name := range typeNames {
		if name == s {
			return t, arrayLen, nil
		}
	}
	return TypeInvalid, 0, fmt.Errorf("schema: unknown field type %q", s)
}

// Field describes one message field. ArrayLen is zero for scalars.
type Field struct {
	Name      string
	Type      FieldType
	ArrayLen  int
	Extension bool
	Enum      string
}

// Len is the field's wire length.
func (f Field) Len() int {
	if f.ArrayLen > 0 {
		return f.Type.Size() * f.ArrayLen
	}
	return f.Type.Size()
}

// Descriptor is the static metadata of one message type.
type Descriptor struct {
	ID       uint32
	Name     string
	CRCExtra byte
	Fields   []Field
}

// WireOrder returns base fields stable-sorted by element size, largest
// first, followed by extension fields in declaration order.
func (d *Descriptor) WireOrder() []Field {
	base := make([]Field, 0, len(d.Fields))
	var ext []Field
	for _, f := range d.Fields {
		if f.Extension {
			ext = append(ext, f)
			continue
		}
		base = append(base, f)
	}
	sort.SliceStable(base, func(i, j int) bool {
		return base[i].Type.Size() > base[j].Type.Size()
	})
	return append(base, ext...)
}

// BaseLength is the payload length without extensions; v1 packets carry
// exactly this many bytes.
func (d *Descriptor) BaseLength() int {
	n := 0
	for _, f := range d.Fields {
		if !f.Extension {
			n += f.Len()
		}
	}
	return n
}

// MaxLength is the payload length including extensions.
func (d *Descriptor) MaxLength() int {
	n := 0
	for _, f := range d.Fields {
		n += f.Len()
	}
	return n
}

// ComputeCRCExtra derives the checksum seed from the message name and the
// base fields in wire order.
func (d *Descriptor) ComputeCRCExtra() byte {
	c := crc.New()
	c.AccumulateString(d.Name + " ")
	for _, f := range d.WireOrder() {
		if f.Extension {
			break
		}
		c.AccumulateString(f.Type.String() + " ")
		c.AccumulateString(f.Name + " ")
		if f.ArrayLen > 0 {
			c.Accumulate(byte(f.ArrayLen))
		}
	}
	return c.Extra()
}
