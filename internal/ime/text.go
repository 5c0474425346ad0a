package ime

import "unicode/utf8"

// runeCount returns the number of characters in s.
func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}

// splitRunes splits s into the first n characters and the remainder.
// n is clamped to [0, runeCount(s)].
func splitRunes(s string, n int) (front, back string) {
	if n <= 0 {
		return "", s
	}
	i := 0
	for off := range s {
		if i == n {
			return s[:off], s[off:]
		}
		i++
	}
	return s, ""
}

// spliceRunes inserts value into s at character offset at.
func spliceRunes(s string, at int, value string) string {
	if at >= runeCount(s) {
		return s + value
	}
	front, back := splitRunes(s, at)
	return front + value + back
}

// clampCursor limits a character offset to the bounds of s.
func clampCursor(s string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if n := runeCount(s); cursor > n {
		return n
	}
	return cursor
}
