package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

var ErrCRCExtraMismatch = errors.New("schema: declared crc_extra does not match fields")

type dialectFile struct {
	Messages []messageFile `toml:"message"`
}

type messageFile struct {
	ID       uint32      `toml:"id"`
	Name     string      `toml:"name"`
	CRCExtra *int        `toml:"crc_extra"`
	Fields   []fieldFile `toml:"field"`
}

type fieldFile struct {
	Name      string `toml:"name"`
	Type      string `toml:"type"`
	Extension bool   `toml:"extension"`
	Enum      string `toml:"enum"`
}

// LoadFile reads a TOML dialect file. See Decode.
func LoadFile(path string) ([]*Descriptor, error) {
	var raw dialectFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load dialect %s: %w", path, err)
	}
	return build(raw)
}

// Decode reads a TOML dialect:
//
//	[[message]]
//	id = 0
//	name = "HEARTBEAT"
//	crc_extra = 50 # optional
//	  [[message.field]]
//	  name = "custom_mode"
//	  type = "uint32_t"
//
// A missing crc_extra is derived from the fields; a present one must
// match.
func Decode(r io.Reader) ([]*Descriptor, error) {
	var raw dialectFile
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dialect: %w", err)
	}
	return build(raw)
}

func build(raw dialectFile) ([]*Descriptor, error) {
	out := make([]*Descriptor, 0, len(raw.Messages))
	for _, m := range raw.Messages {
		d := &Descriptor{ID: m.ID, Name: strings.TrimSpace(m.Name)}
		for _, f := range m.Fields {
			t, n, err := ParseFieldType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", d.Name, f.Name, err)
			}
			d.Fields = append(d.Fields, Field{
				Name:      strings.TrimSpace(f.Name),
				Type:      t,
				ArrayLen:  n,
				Extension: f.Extension,
				Enum:      strings.TrimSpace(f.Enum),
			})
		}
		if err := checkDescriptor(d); err != nil {
			return nil, err
		}
		computed := d.ComputeCRCExtra()
		if m.CRCExtra != nil && *m.CRCExtra != int(computed) {
			return nil, fmt.Errorf("%w: %s declares %d, fields give %d", ErrCRCExtraMismatch, d.Name, *m.CRCExtra, computed)
		}
		d.CRCExtra = computed
		out = append(out, d)
	}
	log.Debug().Int("messages", len(out)).Msg("schema dialect loaded")
	return out, nil
}
