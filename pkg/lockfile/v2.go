package lockfile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// nameVersionPattern splits "lodash@4.17.21" into name and version when an
// entry carries no version of its own.
var nameVersionPattern = regexp.MustCompile(`^(.+?)@([\w.-]+)$`)

type v2Lockfile struct {
	Packages object `json:"packages"`
}

type v2Entry struct {
	Name                 json.RawMessage `json:"name"`
	Version              json.RawMessage `json:"version"`
	Dev                  bool            `json:"dev"`
	Dependencies         object          `json:"dependencies"`
	PeerDependencies     object          `json:"peerDependencies"`
	OptionalDependencies object          `json:"optionalDependencies"`
}

func (e *v2Entry) category(name string) object {
	switch name {
	case CategoryDependencies:
		return e.Dependencies
	case CategoryPeerDependencies:
		return e.PeerDependencies
	case CategoryOptionalDependencies:
		return e.OptionalDependencies
	}
	return nil
}

// ParseV2 normalizes a lockfileVersion 2 or 3 document from its flat
// "packages" map.
//
// The root entry (empty install path) is skipped. Keys have the form
// "name@version (install/path)". Child references keep the literal range from
// the lockfile and are never resolved against other entries.
func ParseV2(data []byte) (*DependencyMap, error) {
	var doc v2Lockfile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := NewDependencyMap()
	for _, pkg := range doc.Packages {
		if pkg.Key == "" {
			continue
		}

		var e v2Entry
		if err := json.Unmarshal(pkg.Value, &e); err != nil {
			return nil, fmt.Errorf("%w: package %s: %v", ErrMalformed, pkg.Key, err)
		}

		name, version := resolveNameVersion(pkg.Key, &e)
		rec := newRecord(SchemaV2)
		rec.IsDevDependency = e.Dev
		for _, cat := range Categories {
			for _, child := range e.category(cat) {
				rec.appendTo(cat, child.Key+"@"+scalarString(child.Value))
			}
		}
		out.Set(Identifier{Name: name, Version: version, Path: pkg.Key}.String(), rec)
	}
	return out, nil
}

// resolveNameVersion picks the package name from the entry or the last path
// segment, then falls back to a "name@version" split when no version is known.
func resolveNameVersion(path string, e *v2Entry) (string, string) {
	name := path[strings.LastIndex(path, "/")+1:]
	if len(e.Name) > 0 && string(e.Name) != "null" {
		name = scalarString(e.Name)
	}

	version := versionOf(e.Version)
	if version == unknownVersion {
		if m := nameVersionPattern.FindStringSubmatch(name); m != nil {
			name, version = m[1], m[2]
		}
	}
	return name, version
}
