package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/danmuck/mavctl/internal/testutil/testlog"
)

func TestCommonCRCExtrasMatchFields(t *testing.T) {
	testlog.Start(t)
	for _, d := range commonDescriptors() {
		if got := d.ComputeCRCExtra(); got != d.CRCExtra {
			t.Fatalf("%s: computed crc extra %d, table has %d", d.Name, got, d.CRCExtra)
		}
	}
}

func TestCommonLengths(t *testing.T) {
	testlog.Start(t)
	reg := Common()
	cases := []struct {
		id        uint32
		base, max int
	}{
		{0, 9, 9},
		{1, 31, 43},
		{20, 20, 20},
		{24, 30, 52},
		{77, 3, 10},
		{253, 51, 54},
	}
	for _, tc := range cases {
		d, ok := reg.Lookup(tc.id)
		if !ok {
			t.Fatalf("message %d missing", tc.id)
		}
		if d.BaseLength() != tc.base || d.MaxLength() != tc.max {
			t.Fatalf("%s: base=%d max=%d want %d/%d", d.Name, d.BaseLength(), d.MaxLength(), tc.base, tc.max)
		}
	}
}

func TestWireOrderSortsBaseFieldsOnly(t *testing.T) {
	testlog.Start(t)
	d, _ := Common().Lookup(77)
	var names []string
	for _, f := range d.WireOrder() {
		names = append(names, f.Name)
	}
	got := strings.Join(names, ",")
	want := "command,result,progress,result_param2,target_system,target_component"
	if got != want {
		t.Fatalf("wire order got=%s want=%s", got, want)
	}

	hb, _ := Common().Lookup(0)
	if first := hb.WireOrder()[0]; first.Name != "custom_mode" {
		t.Fatalf("heartbeat wire order starts with %s", first.Name)
	}
}

func TestRegistryRejectsDuplicatesAndBadShapes(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	d := &Descriptor{ID: 9, Name: "X", Fields: []Field{{Name: "a", Type: TypeUint8}}}
	if err := reg.Register(d); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(d); !errors.Is(err, ErrDescriptorExists) {
		t.Fatalf("expected ErrDescriptorExists, got %v", err)
	}
	if err := reg.Register(nil); !errors.Is(err, ErrDescriptorNil) {
		t.Fatalf("expected ErrDescriptorNil, got %v", err)
	}
	bad := []*Descriptor{
		{ID: 1, Name: ""},
		{ID: 1 << 24, Name: "BIG"},
		{ID: 2, Name: "T", Fields: []Field{{Name: "a"}}},
		{ID: 3, Name: "D", Fields: []Field{{Name: "a", Type: TypeUint8}, {Name: "a", Type: TypeUint8}}},
		{ID: 4, Name: "E", Fields: []Field{{Name: "a", Type: TypeUint8, Extension: true}, {Name: "b", Type: TypeUint8}}},
		{ID: 5, Name: "L", Fields: []Field{{Name: "a", Type: TypeUint64, ArrayLen: 40}}},
	}
	for _, b := range bad {
		if err := reg.Register(b); !errors.Is(err, ErrInvalidDescriptor) {
			t.Fatalf("%q: expected ErrInvalidDescriptor, got %v", b.Name, err)
		}
	}
	if reg.Len() != 1 {
		t.Fatalf("len=%d", reg.Len())
	}
}

func TestRegistryIDsSorted(t *testing.T) {
	testlog.Start(t)
	ids := Common().IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not ascending: %v", ids)
		}
	}
	if extra, ok := Common().CRCExtra(0); !ok || extra != 50 {
		t.Fatalf("heartbeat extra=%d,%v", extra, ok)
	}
	if _, ok := Common().CRCExtra(99999); ok {
		t.Fatalf("unknown id reported a crc extra")
	}
}

func TestValidateLengths(t *testing.T) {
	testlog.Start(t)
	reg := Common()
	if err := reg.Validate(protocol.V1, 0, 9); err != nil {
		t.Fatalf("v1 heartbeat: %v", err)
	}
	if err := reg.Validate(protocol.V2, 77, 10); err != nil {
		t.Fatalf("v2 command ack with extensions: %v", err)
	}
	if err := reg.Validate(protocol.V2, 77, 1); err != nil {
		t.Fatalf("v2 truncated command ack: %v", err)
	}

	cases := []struct {
		v      protocol.Version
		id     uint32
		n      int
		reason string
	}{
		{protocol.V1, 77, 10, ReasonLengthMismatch},
		{protocol.V1, 0, 8, ReasonLengthMismatch},
		{protocol.V2, 0, 10, ReasonTooLong},
		{protocol.V2, 4242, 1, ReasonUnknownMessage},
	}
	for _, tc := range cases {
		err := reg.Validate(tc.v, tc.id, tc.n)
		var ve ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s id=%d len=%d: expected ValidationError, got %v", tc.v, tc.id, tc.n, err)
		}
		if ve.Reason != tc.reason || ve.MessageID != tc.id {
			t.Fatalf("unexpected validation error: %+v", ve)
		}
	}
}

func TestParseFieldType(t *testing.T) {
	testlog.Start(t)
	cases := map[string]struct {
		t FieldType
		n int
	}{
		"uint32_t":                {TypeUint32, 0},
		"char[16]":                {TypeChar, 16},
		" double ":                {TypeDouble, 0},
		"uint8_t_mavlink_version": {TypeUint8, 0},
		"int16_t[4]":              {TypeInt16, 4},
	}
	for in, want := range cases {
		got, n, err := ParseFieldType(in)
		if err != nil || got != want.t || n != want.n {
			t.Fatalf("ParseFieldType(%q)=%s,%d,%v", in, got, n, err)
		}
	}
	for _, in := range []string{"uint128_t", "char[0]", "char[", "char[x]", "char[256]"} {
		if _, _, err := ParseFieldType(in); err == nil {
			t.Fatalf("ParseFieldType(%q) accepted", in)
		}
	}
}

const statustextDialect = `
[[message]]
id = 253
name = "STATUSTEXT"
crc_extra = 83

  [[message.field]]
  name = "severity"
  type = "uint8_t"
  enum = "MAV_SEVERITY"

  [[message.field]]
  name = "text"
  type = "char[50]"

  [[message.field]]
  name = "id"
  type = "uint16_t"
  extension = true

  [[message.field]]
  name = "chunk_seq"
  type = "uint8_t"
  extension = true

[[message]]
id = 4
name = "PING"

  [[message.field]]
  name = "time_usec"
  type = "uint64_t"

  [[message.field]]
  name = "seq"
  type = "uint32_t"

  [[message.field]]
  name = "target_system"
  type = "uint8_t"

  [[message.field]]
  name = "target_component"
  type = "uint8_t"
`

func TestDecodeDialect(t *testing.T) {
	testlog.Start(t)
	descs, err := Decode(strings.NewReader(statustextDialect))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("descriptors=%d", len(descs))
	}
	if descs[0].CRCExtra != 83 || descs[0].MaxLength() != 54 || descs[0].Fields[0].Enum != "MAV_SEVERITY" {
		t.Fatalf("statustext: %+v", descs[0])
	}
	if descs[1].CRCExtra != 237 {
		t.Fatalf("derived ping extra=%d want=237", descs[1].CRCExtra)
	}
	reg := NewRegistry(descs...)
	if reg.Len() != 2 {
		t.Fatalf("registry len=%d", reg.Len())
	}
}

func TestDecodeRejectsWrongCRCExtra(t *testing.T) {
	testlog.Start(t)
	in := strings.Replace(statustextDialect, "crc_extra = 83", "crc_extra = 84", 1)
	if _, err := Decode(strings.NewReader(in)); !errors.Is(err, ErrCRCExtraMismatch) {
		t.Fatalf("expected ErrCRCExtraMismatch, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "dialect.toml")
	if err := os.WriteFile(path, []byte(statustextDialect), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	descs, err := LoadFile(path)
	if err != nil || len(descs) != 2 {
		t.Fatalf("load: %d %v", len(descs), err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMergeReplacesByID(t *testing.T) {
	testlog.Start(t)
	custom := &Descriptor{ID: 0, Name: "VENDOR_HEARTBEAT", Fields: []Field{{Name: "a", Type: TypeUint8}}}
	custom.CRCExtra = custom.ComputeCRCExtra()
	extra := &Descriptor{ID: 50000, Name: "VENDOR_STATUS", Fields: []Field{{Name: "b", Type: TypeUint16}}}
	extra.CRCExtra = extra.ComputeCRCExtra()

	base := Common()
	merged, err := Merge(base, custom, extra)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Len() != base.Len()+1 {
		t.Fatalf("merged len=%d base=%d", merged.Len(), base.Len())
	}
	if d, _ := merged.Lookup(0); d.Name != "VENDOR_HEARTBEAT" {
		t.Fatalf("id 0 not replaced: %s", d.Name)
	}
	if d, _ := base.Lookup(0); d.Name != "HEARTBEAT" {
		t.Fatalf("base registry modified")
	}
	if _, err := Merge(base, &Descriptor{ID: 1}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
	}
}
