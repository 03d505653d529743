package model

import "unicode/utf8"

// MaxTextLength is the cap applied to every text-bearing field.
const MaxTextLength = 200

const ellipsis = "..."

// Truncate caps s at MaxTextLength characters, appending "..." when cut.
func Truncate(s string) string {
	return TruncateTo(s, MaxTextLength)
}

// TruncateTo caps s at n characters (runes), appending "..." when cut.
func TruncateTo(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + ellipsis
		}
		count++
	}
	return s
}
