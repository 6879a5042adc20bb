// Package prepare implements the Document Preparer: sanitization, metadata
// flattening, sliding-window chunking and content hashing that turn a
// LogicalDocument into the StoredItem(s) the Upsert Pipeline writes.
package prepare

import "unicode/utf8"

// Sanitize strips lone UTF-16 surrogate halves from s and recombines a
// valid high+low pair into the single astral code point it encodes.
// Surrogates never survive Go's own UTF-8 codec (a bare string or []rune
// conversion silently replaces them with U+FFFD before this function ever
// sees them), so upstream connector payloads that still carry a
// truncated pair encode it as WTF-8 — three raw bytes per half, shaped
// like ordinary UTF-8 but landing in the surrogate range. This function
// scans for exactly that byte shape.
func Sanitize(s string) string {
	b := []byte(s)
	out := make([]byte, 0, len(b))

	for i := 0; i < len(b); {
		if hi, size, ok := decodeSurrogate(b[i:]); ok && isHighSurrogate(hi) {
			if lo, size2, ok2 := decodeSurrogate(b[i+size:]); ok2 && isLowSurrogate(lo) {
				combined := 0x10000 + (hi-0xD800)*0x400 + (lo - 0xDC00)
				var buf [utf8.UTFMax]byte
				n := utf8.EncodeRune(buf[:], combined)
				out = append(out, buf[:n]...)
				i += size + size2
				continue
			}
			// Lone high surrogate: drop it.
			i += size
			continue
		}
		if _, size, ok := decodeSurrogate(b[i:]); ok {
			// Lone low surrogate (not preceded by an unconsumed high one): drop it.
			i += size
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		out = append(out, buf[:n]...)
		i += size
	}
	return string(out)
}

// decodeSurrogate recognizes the 3-byte WTF-8 encoding of a surrogate
// code unit (0xED followed by 0xA0-0xBF then a trailing byte) — the
// shape Go's own UTF-8 decoder rejects outright.
func decodeSurrogate(b []byte) (r rune, size int, ok bool) {
	if len(b) < 3 || b[0] != 0xED || b[1] < 0xA0 || b[1] > 0xBF || b[2] < 0x80 || b[2] > 0xBF {
		return 0, 0, false
	}
	r = rune(b[0]&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
	return r, 3, true
}

func isHighSurrogate(r rune) bool { return r >= 0xD800 && r <= 0xDBFF }
func isLowSurrogate(r rune) bool  { return r >= 0xDC00 && r <= 0xDFFF }
