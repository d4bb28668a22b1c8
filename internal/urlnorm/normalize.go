package urlnorm

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// xmlAmpersand is the entity some exporters leave behind for '&' in locations.
const xmlAmpersand = "&#38;"

// safePathBytes are left unescaped by the catalog's own URL encoder, in
// addition to the RFC 3986 unreserved characters.
const safePathBytes = "/&'(),[];!+=@"

const upperHex = "0123456789ABCDEF"

// Parts holds the structural components of a location string.
type Parts struct {
	Scheme   string
	Host     string
	HasHost  bool
	Path     string
	Query    string
	HasQuery bool
	Fragment string
	HasFrag  bool
}

// Normalize converts a location into the canonical catalog form: the XML
// ampersand entity is unescaped, the path is percent-decoded, composed to NFC
// and re-encoded with the catalog's safe set. Scheme, host, query and fragment
// are kept verbatim.
func Normalize(raw string) string {
	raw = strings.ReplaceAll(raw, xmlAmpersand, "&")
	parts := Split(raw)
	decoded := Unescape(parts.Path)
	composed := norm.NFC.String(decoded)
	parts.Path = Escape(composed)
	return parts.String()
}

// Split breaks a location into its components without decoding anything, so
// encoded separators inside the path (%2F, %3F, %23) stay part of the path.
func Split(raw string) Parts {
	var p Parts
	rest := raw
	if scheme, after, ok := cutScheme(rest); ok {
		p.Scheme = scheme
		rest = after
	}
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		p.Host = rest[:end]
		p.HasHost = true
		rest = rest[end:]
	}
	if before, frag, ok := strings.Cut(rest, "#"); ok {
		p.Fragment = frag
		p.HasFrag = true
		rest = before
	}
	if before, query, ok := strings.Cut(rest, "?"); ok {
		p.Query = query
		p.HasQuery = true
		rest = before
	}
	p.Path = rest
	return p
}

// String reassembles the components.
func (p Parts) String() string {
	var b strings.Builder
	b.Grow(len(p.Scheme) + len(p.Host) + len(p.Path) + len(p.Query) + len(p.Fragment) + 8)
	if p.Scheme != "" {
		b.WriteString(p.Scheme)
		b.WriteByte(':')
	}
	if p.HasHost {
		b.WriteString("//")
		b.WriteString(p.Host)
	}
	b.WriteString(p.Path)
	if p.HasQuery {
		b.WriteByte('?')
		b.WriteString(p.Query)
	}
	if p.HasFrag {
		b.WriteByte('#')
		b.WriteString(p.Fragment)
	}
	return b.String()
}

// cutScheme splits "scheme:rest" when the prefix is a syntactically valid
// scheme. Single letters are rejected so Windows drive paths are left alone.
func cutScheme(raw string) (string, string, bool) {
	idx := strings.IndexByte(raw, ':')
	if idx < 2 {
		return "", raw, false
	}
	for i := 0; i < idx; i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return "", raw, false
		}
	}
	return strings.ToLower(raw[:idx]), raw[idx+1:], true
}

// Unescape percent-decodes s. Malformed escapes are kept literally and byte
// sequences that are not valid UTF-8 become U+FFFD.
func Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				buf = append(buf, hi<<4|lo)
				i += 2
				continue
			}
		}
		buf = append(buf, s[i])
	}
	if utf8.Valid(buf) {
		return string(buf)
	}
	return replaceInvalid(buf)
}

// replaceInvalid substitutes one U+FFFD for each maximal invalid subpart of
// b: every stray byte gets its own replacement, while a truncated multi-byte
// sequence gets a single one.
func replaceInvalid(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidPrefixLen(b):]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}

// invalidPrefixLen reports how many bytes at the start of b form an
// incomplete but well-started UTF-8 sequence, and at least 1.
func invalidPrefixLen(b []byte) int {
	var need int
	lo, hi := byte(0x80), byte(0xBF)
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		need, lo = 2, 0xA0
	case c == 0xED:
		need, hi = 2, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		need, lo = 3, 0x90
	case c == 0xF4:
		need, hi = 3, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}
	n := 1
	for n <= need && n < len(b) && b[n] >= lo && b[n] <= hi {
		n++
		lo, hi = 0x80, 0xBF
	}
	return n
}

// Escape percent-encodes every UTF-8 byte of s outside the unreserved set and
// the catalog safe set, using upper-case hex digits.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !keepByte(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepByte(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperHex[c>>4], upperHex[c&0x0F])
	}
	return string(buf)
}

func keepByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return strings.IndexByte(safePathBytes, c) >= 0
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
