package lockfile

import "strings"

// Identifier is a package identifier split into its parts.
// Path is empty for v1 identifiers and child references.
type Identifier struct {
	Name    string
	Version string
	Path    string
}

// String renders "name@version" or "name@version (path)".
func (id Identifier) String() string {
	s := id.Name + "@" + id.Version
	if id.Path != "" {
		s += " (" + id.Path + ")"
	}
	return s
}

// ParseIdentifier splits an identifier produced by either parser, or a child
// reference, into name, version and optional install path.
//
// The path is whatever follows the first " (" with trailing parentheses
// removed. The version follows the last "@", so scoped names such as
// "@babel/core@7.0.0" keep their leading "@". A reference without a version
// gets "unknown". All parts are trimmed.
func ParseIdentifier(s string) Identifier {
	var id Identifier
	nameVersion := s
	if before, after, ok := strings.Cut(s, " ("); ok {
		nameVersion = before
		id.Path = strings.TrimSpace(strings.TrimRight(after, ")"))
	}

	nameVersion = strings.TrimSpace(nameVersion)
	if i := strings.LastIndex(nameVersion, "@"); i > 0 {
		id.Name = strings.TrimSpace(nameVersion[:i])
		id.Version = strings.TrimSpace(nameVersion[i+1:])
	} else {
		id.Name = nameVersion
		id.Version = unknownVersion
	}
	return id
}
