package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestId is a JSON-RPC request identifier. Per the JSON-RPC spec it is
// either a number or a string, and the two are not interchangeable: the
// string "1" and the number 1 are distinct ids. Go has no tagged-union
// enum, so RequestId carries both representations and a discriminant
// instead of collapsing to `any`, which would let a map keyed by decoded
// JSON silently conflate them.
type RequestId struct {
	isString bool
	num      int64
	str      string
}

// NewNumberID builds a numeric RequestId.
func NewNumberID(n int64) RequestId {
	return RequestId{num: n}
}

// NewStringID builds a string RequestId.
func NewStringID(s string) RequestId {
	return RequestId{isString: true, str: s}
}

// IsString reports whether this id was encoded as a JSON string.
func (id RequestId) IsString() bool { return id.isString }

// Int64 returns the numeric value and true if this id is numeric.
func (id RequestId) Int64() (int64, bool) {
	if id.isString {
		return 0, false
	}
	return id.num, true
}

// String returns the id's string value if it was encoded as a string, and
// its decimal representation otherwise, for logging and display only —
// never for equality comparisons.
func (id RequestId) String() string {
	if id.isString {
		return id.str
	}
	return strconv.FormatInt(id.num, 10)
}

// key returns a string suitable for use as a comparable map key that
// respects the number/string tag, so RequestId{num: 1} and
// RequestId{str: "1"} never collide.
func (id RequestId) key() string {
	if id.isString {
		return "s:" + id.str
	}
	return "n:" + strconv.FormatInt(id.num, 10)
}

// Equal reports whether two RequestIds represent the same tagged value.
func (id RequestId) Equal(other RequestId) bool {
	return id.key() == other.key()
}

// MarshalJSON renders the id as a bare JSON number or string, matching
// the untagged representation MCP providers expect on the wire.
func (id RequestId) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

// UnmarshalJSON accepts a bare JSON number or string and tags the result
// accordingly. A JSON null decodes to the zero RequestId (numeric 0);
// callers that must distinguish "no id" from "id 0" should check the
// raw message length before unmarshaling into a RequestId.
func (id *RequestId) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*id = RequestId{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("mcp: decoding string request id: %w", err)
		}
		*id = RequestId{isString: true, str: s}
		return nil
	}
	var n int64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("mcp: decoding numeric request id: %w", err)
	}
	*id = RequestId{num: n}
	return nil
}
