package render

import (
	"fmt"
	"unicode/utf16"
)

// UserColor maps a user handle to a stable "#RRGGBB" color.
// The handle is folded over its UTF-16 code units with hash = c + (hash<<5 - hash)
// in a wrapping int32 and the low 24 bits are kept. Collisions are expected.
func UserColor(handle string) string {
	var hash int32
	for _, c := range utf16.Encode([]rune(handle)) {
		hash = int32(c) + ((hash << 5) - hash)
	}
	return fmt.Sprintf("#%06X", uint32(hash)&0x00FFFFFF)
}
