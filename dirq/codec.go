package dirq

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
)

// Kind tags a Value as holding binary or textual data.
type Kind int

const (
	// KindString marks a Value holding Unicode text.
	KindString Kind = iota
	// KindBinary marks a Value holding arbitrary bytes.
	KindBinary
	// KindTable marks a Value holding an ordered list of strings,
	// schema grammar's "table" field kind (spec.md §6).
	KindTable
)

// Value is a single field of a Record, tagged by Kind.
type Value struct {
	Kind  Kind
	Str   string
	Bin   []byte
	Table []string
}

// StringValue builds a textual Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// BinaryValue builds a binary Value.
func BinaryValue(b []byte) Value { return Value{Kind: KindBinary, Bin: b} }

// TableValue builds a list-of-strings Value.
func TableValue(rows []string) Value { return Value{Kind: KindTable, Table: rows} }

// Record is the typed-queue payload: a mapping from field name to a
// tagged value.
type Record map[string]Value

// Encode serializes a record as "key1=value1\nkey2=value2\n..." with
// percent-escaping applied to every value and keys sorted
// lexicographically, per spec §4.2.
func Encode(r Record) []byte {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := r[k]
		var raw string
		if v.Kind == KindBinary {
			raw = string(v.Bin)
		} else {
			raw = v.Str
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(escape(raw))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Decode parses the format produced by Encode. Every decoded value is
// tagged KindString; callers that need binary semantics know that
// from their own schema and should treat the Str field's bytes
// accordingly, or use Value.Bin via a Record built by the typed queue
// directly rather than through the wire codec.
func Decode(data []byte) (Record, error) {
	r := make(Record)
	s := string(data)
	if s == "" {
		return r, nil
	}
	lines := strings.Split(s, "\n")
	// A well-formed encoding ends in \n, so the final split element is "".
	if lines[len(lines)-1] != "" {
		return nil, fmt.Errorf("%w: unterminated trailing bytes", dirqerrors.ErrMalformedEncoding)
	}
	lines = lines[:len(lines)-1]

	for _, line := range lines {
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: line %q has no '='", dirqerrors.ErrMalformedEncoding, line)
		}
		key := line[:eq]
		value, err := unescape(line[eq+1:])
		if err != nil {
			return nil, err
		}
		r[key] = StringValue(value)
	}
	return r, nil
}

// escape percent-escapes '%', '=', '\n' and any non-printable byte.
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' || c == '=' || c == '\n':
			fmt.Fprintf(&b, "%%%02X", c)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unescape reverses escape, failing with ErrMalformedEncoding if a
// '%' is not followed by two hex digits.
func unescape(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("%w: truncated escape at offset %d", dirqerrors.ErrMalformedEncoding, i)
		}
		n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w: invalid escape %q: %v", dirqerrors.ErrMalformedEncoding, s[i:i+3], err)
		}
		b.WriteByte(byte(n))
		i += 2
	}
	return b.String(), nil
}

// validUnicode reports whether s is valid UTF-8, the requirement
// spec §4.4 places on string-typed fields.
func validUnicode(s string) bool {
	return utf8.ValidString(s)
}
