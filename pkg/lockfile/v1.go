package lockfile

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const unknownVersion = "unknown"

type v1Lockfile struct {
	Dependencies object `json:"dependencies"`
}

type v1Entry struct {
	Version      json.RawMessage `json:"version"`
	Dev          bool            `json:"dev"`
	Requires     object          `json:"requires"`
	Dependencies object          `json:"dependencies"`
}

// v1Frame is a pending entry on the traversal stack. trail is the chain of
// ancestor names, used only for error context.
type v1Frame struct {
	name  string
	raw   json.RawMessage
	trail []string
}

// ParseV1 normalizes a lockfileVersion 1 document.
//
// Entries are visited depth-first in pre-order, following document key order.
// Each visited entry yields one record keyed "name@version" whose dependencies
// come from its "requires" mapping. Nested "dependencies" are only traversed,
// never used as edges. A missing version becomes "unknown" and a missing dev
// flag becomes false.
//
// Nesting depth is bounded only by the input; JSON cannot express a cycle, so
// no cycle guard is needed.
func ParseV1(data []byte) (*DependencyMap, error) {
	var doc v1Lockfile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := NewDependencyMap()
	stack := pushFrames(nil, doc.Dependencies, nil)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var e v1Entry
		if err := json.Unmarshal(f.raw, &e); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrMalformed, describeTrail(f), err)
		}

		rec := newRecord(SchemaV1)
		rec.IsDevDependency = e.Dev
		for _, req := range e.Requires {
			rec.appendTo(CategoryDependencies, req.Key+"@"+scalarString(req.Value))
		}
		out.Set(f.name+"@"+versionOf(e.Version), rec)

		stack = pushFrames(stack, e.Dependencies, append(slices.Clip(f.trail), f.name))
	}
	return out, nil
}

// pushFrames pushes children in reverse so they pop in document order.
func pushFrames(stack []v1Frame, children object, trail []string) []v1Frame {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, v1Frame{name: children[i].Key, raw: children[i].Value, trail: trail})
	}
	return stack
}

func describeTrail(f v1Frame) string {
	return strings.Join(append(slices.Clip(f.trail), f.name), " > ")
}

func versionOf(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return unknownVersion
	}
	return scalarString(raw)
}
