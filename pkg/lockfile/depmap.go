package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"slices"
)

// Schema identifies the lockfile layout a record or map was produced from.
type Schema int

const (
	// SchemaAuto selects the layout per file with [DetectSchema].
	SchemaAuto Schema = iota
	// SchemaV1 is the nested "dependencies" tree of lockfileVersion 1.
	SchemaV1
	// SchemaV2 is the flat "packages" map of lockfileVersion 2 and later.
	SchemaV2
)

// String returns "auto", "v1" or "v2".
func (s Schema) String() string {
	switch s {
	case SchemaAuto:
		return "auto"
	case SchemaV1:
		return "v1"
	case SchemaV2:
		return "v2"
	}
	return "unknown"
}

// ParseSchema converts "auto", "v1" or "v2" (or "1"/"2"/"3") into a Schema.
func ParseSchema(s string) (Schema, error) {
	switch s {
	case "auto", "":
		return SchemaAuto, nil
	case "v1", "1":
		return SchemaV1, nil
	case "v2", "2", "v3", "3":
		return SchemaV2, nil
	}
	return 0, fmt.Errorf("unknown lockfile schema %q (want auto, v1 or v2)", s)
}

// Dependency categories, in the order they are stored and imported.
const (
	CategoryDependencies         = "dependencies"
	CategoryPeerDependencies     = "peerDependencies"
	CategoryOptionalDependencies = "optionalDependencies"
)

// Categories lists the dependency categories of a record in canonical order.
var Categories = []string{
	CategoryDependencies,
	CategoryPeerDependencies,
	CategoryOptionalDependencies,
}

// Record is the normalized entry for one package.
//
// The three dependency sequences are never nil once a record has been built by
// a parser or decoded from JSON. Repeated references are kept as they appear
// in the lockfile.
type Record struct {
	Dependencies         []string
	PeerDependencies     []string
	OptionalDependencies []string
	IsDevDependency      bool

	// Schema controls the JSON shape: v1 records carry only "dependencies"
	// and "isDevDependency".
	Schema Schema
}

func newRecord(schema Schema) *Record {
	return &Record{
		Dependencies:         []string{},
		PeerDependencies:     []string{},
		OptionalDependencies: []string{},
		Schema:               schema,
	}
}

// Category returns the references stored under the named category.
// Unknown categories return nil.
func (r *Record) Category(name string) []string {
	switch name {
	case CategoryDependencies:
		return r.Dependencies
	case CategoryPeerDependencies:
		return r.PeerDependencies
	case CategoryOptionalDependencies:
		return r.OptionalDependencies
	}
	return nil
}

func (r *Record) appendTo(category, ref string) {
	switch category {
	case CategoryDependencies:
		r.Dependencies = append(r.Dependencies, ref)
	case CategoryPeerDependencies:
		r.PeerDependencies = append(r.PeerDependencies, ref)
	case CategoryOptionalDependencies:
		r.OptionalDependencies = append(r.OptionalDependencies, ref)
	}
}

type recordV1JSON struct {
	Dependencies    []string `json:"dependencies"`
	IsDevDependency bool     `json:"isDevDependency"`
}

type recordV2JSON struct {
	Dependencies         []string `json:"dependencies"`
	PeerDependencies     []string `json:"peerDependencies"`
	OptionalDependencies []string `json:"optionalDependencies"`
	IsDevDependency      bool     `json:"isDevDependency"`
}

// MarshalJSON encodes the record in the shape of its schema.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Schema == SchemaV1 {
		return json.Marshal(recordV1JSON{
			Dependencies:    nonNil(r.Dependencies),
			IsDevDependency: r.IsDevDependency,
		})
	}
	return json.Marshal(recordV2JSON{
		Dependencies:         nonNil(r.Dependencies),
		PeerDependencies:     nonNil(r.PeerDependencies),
		OptionalDependencies: nonNil(r.OptionalDependencies),
		IsDevDependency:      r.IsDevDependency,
	})
}

// UnmarshalJSON decodes either record shape. Records without peer or optional
// fields are treated as v1.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Dependencies         []string  `json:"dependencies"`
		PeerDependencies     *[]string `json:"peerDependencies"`
		OptionalDependencies *[]string `json:"optionalDependencies"`
		IsDevDependency      bool      `json:"isDevDependency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = *newRecord(SchemaV1)
	r.Dependencies = nonNil(raw.Dependencies)
	r.IsDevDependency = raw.IsDevDependency
	if raw.PeerDependencies != nil {
		r.PeerDependencies = nonNil(*raw.PeerDependencies)
		r.Schema = SchemaV2
	}
	if raw.OptionalDependencies != nil {
		r.OptionalDependencies = nonNil(*raw.OptionalDependencies)
		r.Schema = SchemaV2
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// DependencyMap is an insertion-ordered mapping from package identifier to
// [Record].
//
// Setting an identifier that already exists replaces its record but keeps the
// original position. The zero value is not usable; use [NewDependencyMap].
type DependencyMap struct {
	keys    []string
	records map[string]*Record
}

// NewDependencyMap creates an empty map.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{records: make(map[string]*Record)}
}

// Set stores rec under id.
func (m *DependencyMap) Set(id string, rec *Record) {
	if _, ok := m.records[id]; !ok {
		m.keys = append(m.keys, id)
	}
	m.records[id] = rec
}

// Get returns the record stored under id.
func (m *DependencyMap) Get(id string) (*Record, bool) {
	rec, ok := m.records[id]
	return rec, ok
}

// Len returns the number of identifiers in the map.
func (m *DependencyMap) Len() int { return len(m.keys) }

// Keys returns the identifiers in insertion order.
func (m *DependencyMap) Keys() []string { return slices.Clone(m.keys) }

// All iterates over identifiers and records in insertion order.
func (m *DependencyMap) All() iter.Seq2[string, *Record] {
	return func(yield func(string, *Record) bool) {
		for _, k := range m.keys {
			if !yield(k, m.records[k]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *DependencyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.records[k])
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a canonical map, keeping document key order.
func (m *DependencyMap) UnmarshalJSON(data []byte) error {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*m = *NewDependencyMap()
	for _, mem := range obj {
		rec := newRecord(SchemaV1)
		if err := json.Unmarshal(mem.Value, rec); err != nil {
			return fmt.Errorf("record %s: %w", mem.Key, err)
		}
		m.Set(mem.Key, rec)
	}
	return nil
}

// WriteJSON writes m to w as two-space indented JSON.
func WriteJSON(m *DependencyMap, w io.Writer) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("indent: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

// ReadJSON decodes a canonical dependency map from r.
func ReadJSON(r io.Reader) (*DependencyMap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m := NewDependencyMap()
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}
