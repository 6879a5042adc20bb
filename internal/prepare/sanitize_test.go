package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// wtf8Surrogate returns the raw 3-byte WTF-8 encoding of a UTF-16
// surrogate code unit in [0xD800, 0xDFFF] — the byte shape a truncated
// connector payload would carry, which Go's own UTF-8 codec can never
// produce via string/rune conversion.
func wtf8Surrogate(codeUnit rune) string {
	b := []byte{
		0xED,
		0x80 | byte((codeUnit>>6)&0x3F),
		0x80 | byte(codeUnit&0x3F),
	}
	return string(b)
}

func TestSanitize_KeepsPlainText(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("hello world"))
}

func TestSanitize_CombinesValidSurrogatePair(t *testing.T) {
	// U+1F600 GRINNING FACE = high D83D, low DE00.
	input := "a" + wtf8Surrogate(0xD83D) + wtf8Surrogate(0xDE00) + "b"
	assert.Equal(t, "a\U0001F600b", Sanitize(input))
}

func TestSanitize_DropsUnpairedHighSurrogate(t *testing.T) {
	input := "a" + wtf8Surrogate(0xD83D) + "b"
	assert.Equal(t, "ab", Sanitize(input))
}

func TestSanitize_DropsUnpairedLowSurrogate(t *testing.T) {
	input := "a" + wtf8Surrogate(0xDE00) + "b"
	assert.Equal(t, "ab", Sanitize(input))
}

func TestSanitize_DropsHighSurrogateNotFollowedByLow(t *testing.T) {
	input := wtf8Surrogate(0xD83D) + "x"
	assert.Equal(t, "x", Sanitize(input))
}

func TestSanitize_EmptyString(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
}
