package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// member is a single key/value pair of a JSON object, kept with its raw value.
type member struct {
	Key   string
	Value json.RawMessage
}

// object is a JSON object decoded in document order.
// encoding/json maps do not keep key order, and both the traversal order and
// the order of child references are part of the normalized output.
type object []member

// UnmarshalJSON decodes a JSON object into its members, in order.
// A JSON null decodes to an empty object.
func (o *object) UnmarshalJSON(data []byte) error {
	*o = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value for %q: %w", key, err)
		}
		*o = append(*o, member{Key: key, Value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// scalarString renders a JSON value as the text that should appear in an
// identifier. Strings are unquoted; anything else is kept as raw JSON.
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
