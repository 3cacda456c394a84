package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a document is not valid JSON or does not have
// the shape of the requested lockfile schema.
var ErrMalformed = errors.New("malformed lockfile")

type lockfileHeader struct {
	LockfileVersion json.Number `json:"lockfileVersion"`
	Packages        object      `json:"packages"`
}

// DetectSchema reports the layout of a lockfile. Documents with
// lockfileVersion 2 or later, or with a non-empty "packages" map, are v2;
// everything else is v1.
func DetectSchema(data []byte) (Schema, error) {
	var h lockfileHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v, err := h.LockfileVersion.Int64(); err == nil && v >= 2 {
		return SchemaV2, nil
	}
	if len(h.Packages) > 0 {
		return SchemaV2, nil
	}
	return SchemaV1, nil
}

// Parse normalizes data with the parser for schema. SchemaAuto detects the
// layout first.
func Parse(data []byte, schema Schema) (*DependencyMap, error) {
	switch schema {
	case SchemaAuto:
		return ParseAuto(data)
	case SchemaV1:
		return ParseV1(data)
	case SchemaV2:
		return ParseV2(data)
	}
	return nil, fmt.Errorf("unsupported schema %d", schema)
}

// ParseAuto detects the lockfile layout and normalizes data.
func ParseAuto(data []byte) (*DependencyMap, error) {
	schema, err := DetectSchema(data)
	if err != nil {
		return nil, err
	}
	return Parse(data, schema)
}
