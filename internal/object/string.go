package object

import (
	"bytes"
	"strings"

	"pocket/internal/value"
)

// String is an immutable byte sequence with a precomputed hash (spec
// §3.3). Capacity is kept as len+1 conceptually (room for a trailing
// NUL) to preserve the NUL-terminated-search behavior §9 calls out for
// Replace; Go strings don't need the byte, but the search algorithm
// below still honors the documented truncate-at-NUL quirk.
type String struct {
	Header
	bytes []byte
	hash  uint64
}

func (s *String) Bytes() []byte { return s.bytes }
func (s *String) Text() string  { return string(s.bytes) }
func (s *String) Len() int      { return len(s.bytes) }

func (s *String) EqualObj(other value.Obj) bool {
	o, ok := other.(*String)
	return ok && bytes.Equal(s.bytes, o.bytes)
}

func (s *String) HashObj() (uint64, bool) { return s.hash, true }
func (s *String) TruthyObj() bool         { return len(s.bytes) > 0 }

// NewString allocates a String from literal bytes, computing its hash
// eagerly (spec §4.2).
func NewString(gc *GC, s string) *String {
	str := &String{bytes: []byte(s), hash: value.HashBytes([]byte(s))}
	str.kind = value.ObjString
	gc.link(str, uint64(len(s))+32)
	return str
}

// NewStringFromBytes is the byte-slice constructor used by concat,
// replace, split, and the printf-style formatter below.
func NewStringFromBytes(gc *GC, b []byte) *String {
	cp := make([]byte, len(b))
	copy(cp, b)
	str := &String{bytes: cp, hash: value.HashBytes(cp)}
	str.kind = value.ObjString
	gc.link(str, uint64(len(cp))+32)
	return str
}

func Concat(gc *GC, a, b *String) *String {
	buf := make([]byte, 0, len(a.bytes)+len(b.bytes))
	buf = append(buf, a.bytes...)
	buf = append(buf, b.bytes...)
	return NewStringFromBytes(gc, buf)
}

func Lower(gc *GC, s *String) *String {
	return NewStringFromBytes(gc, []byte(strings.ToLower(s.Text())))
}

func Upper(gc *GC, s *String) *String {
	return NewStringFromBytes(gc, []byte(strings.ToUpper(s.Text())))
}

func Strip(gc *GC, s *String) *String {
	return NewStringFromBytes(gc, []byte(strings.TrimSpace(s.Text())))
}

func Split(gc *GC, s, sep *String) []*String {
	parts := strings.Split(s.Text(), sep.Text())
	out := make([]*String, len(parts))
	for i, p := range parts {
		out[i] = NewStringFromBytes(gc, []byte(p))
	}
	return out
}

// Replace implements the source's stringReplace algorithm (spec §4.2):
// pre-compute max_count = len/old.len; clamp the requested count to it;
// pre-size the output to max(len, len+(new.len-old.len)*count); scan with
// substring search, copying spans and replacements, then re-hash.
//
// Design note (spec §9, "Open questions / suspected source defects"):
// the search is NUL-terminated, so an embedded NUL byte in s truncates
// the match scan early. That is preserved here deliberately, not fixed:
// we stop scanning s at the first 0x00 byte, exactly like a C strstr
// over a NUL-terminated buffer would.
func Replace(gc *GC, s, old, newS *String, count int) *String {
	if len(old.bytes) == 0 {
		return NewStringFromBytes(gc, s.bytes)
	}
	searchable := s.bytes
	if i := bytes.IndexByte(searchable, 0); i >= 0 {
		searchable = searchable[:i]
	}
	maxCount := len(s.bytes) / len(old.bytes)
	if count < 0 || count > maxCount {
		count = maxCount
	}
	capGuess := len(s.bytes)
	if grow := len(newS.bytes) - len(old.bytes); grow > 0 {
		capGuess = len(s.bytes) + grow*count
	}
	out := make([]byte, 0, capGuess)

	rest := s.bytes
	searchRest := searchable
	replaced := 0
	for replaced < count {
		idx := bytes.Index(searchRest, old.bytes)
		if idx < 0 {
			break
		}
		out = append(out, rest[:idx]...)
		out = append(out, newS.bytes...)
		rest = rest[idx+len(old.bytes):]
		searchRest = searchRest[idx+len(old.bytes):]
		replaced++
	}
	out = append(out, rest...)
	return NewStringFromBytes(gc, out)
}

// Format implements the source's printf-style helper (spec §4.2):
// `$` consumes a Go string argument, `@` consumes a *String argument,
// any other character is emitted literally.
func Format(gc *GC, pattern string, args ...interface{}) *String {
	var buf bytes.Buffer
	ai := 0
	next := func() interface{} {
		if ai < len(args) {
			v := args[ai]
			ai++
			return v
		}
		return nil
	}
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '$':
			if s, ok := next().(string); ok {
				buf.WriteString(s)
			}
		case '@':
			if s, ok := next().(*String); ok {
				buf.Write(s.bytes)
			}
		default:
			buf.WriteByte(pattern[i])
		}
	}
	return NewStringFromBytes(gc, buf.Bytes())
}


