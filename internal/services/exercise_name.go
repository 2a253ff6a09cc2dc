package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var exerciseFolder = cases.Fold()

// NormalizeExerciseName canonicalises a free-text exercise name.
//
// Whitespace is trimmed and collapsed, then every token is lowercased and its
// first character upper-cased. Hyphenated tokens count as a single word, so
// "t-bar row" becomes "T-bar Row" rather than "T-Bar Row".
func NormalizeExerciseName(raw string) string {
	fields := strings.Fields(raw)
	for i, field := range fields {
		fields[i] = capitalizeToken(strings.ToLower(field))
	}
	return strings.Join(fields, " ")
}

func capitalizeToken(token string) string {
	r, size := utf8.DecodeRuneInString(token)
	if r == utf8.RuneError {
		return token
	}
	return string(unicode.ToUpper(r)) + token[size:]
}

// ExerciseKey returns the comparison key for an exercise name: normalised, then case folded.
func ExerciseKey(name string) string {
	return exerciseFolder.String(NormalizeExerciseName(name))
}

// ExerciseNamesMatch reports whether two exercise names refer to the same exercise.
// No fuzzy matching: the normalised, folded forms must be identical.
func ExerciseNamesMatch(a, b string) bool {
	return ExerciseKey(a) == ExerciseKey(b)
}
