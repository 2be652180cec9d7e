package question

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	directionsBracketRe = regexp.MustCompile(` \[.+\]`)
	directionsParenRe   = regexp.MustCompile(` \(.+\)`)
	bonusValueRe        = regexp.MustCompile(`\|{0,2}\[10\|{0,2}[emh]?\|{0,2}\](?:\[[emh]\])?\|{0,2} ?`)
	codeFirstRe         = regexp.MustCompile(`([A-Z]{2,3}), (.*)`)
	codeLastRe          = regexp.MustCompile(`(.*), ([A-Z]{2,3})`)
	questionNumberRe    = regexp.MustCompile(`^\s*\|{0,2}\s*(\d+)[.)]\s*`)
)

const indicatorFallbackSize = 30

// RemoveSpoilers strips spoiler markers.
func RemoveSpoilers(text string) string {
	return strings.ReplaceAll(text, "||", "")
}

// ShortenAnswer drops bracketed and parenthesised directions from an answer line.
func ShortenAnswer(answer string) string {
	answer = directionsBracketRe.ReplaceAllString(answer, "")
	answer = directionsParenRe.ReplaceAllString(answer, "")
	return strings.TrimSpace(RemoveSpoilers(answer))
}

// RemoveBonusValue strips a leading "[10]" / "[10e]" / "[10][e]" marker from a bonus part.
func RemoveBonusValue(part string) string {
	if loc := bonusValueRe.FindStringIndex(part); loc != nil {
		return part[:loc[0]] + part[loc[1]:]
	}
	return part
}

// CategoryName reads the category label from "CODE, Category" or "Category, CODE" metadata.
func CategoryName(metadata string) string {
	if metadata == "" {
		return ""
	}
	metadata = RemoveSpoilers(metadata)
	category := ""
	if m := codeFirstRe.FindStringSubmatch(metadata); m != nil {
		category = strings.TrimSpace(m[2])
	}
	if m := codeLastRe.FindStringSubmatch(metadata); m != nil {
		category = strings.TrimSpace(m[1])
	}
	return category
}

// Number returns the leading question number, if any.
func Number(text string) string {
	if m := questionNumberRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// RemoveNumber strips the leading question number.
func RemoveNumber(text string) string {
	return questionNumberRe.ReplaceAllString(text, "")
}

// ToFirstIndicator shortens a clue for use as a title: up to the word after the
// first "this"/"these" when it is not the first word, otherwise the first 30 characters.
func ToFirstIndicator(clue string) string {
	words := strings.Split(clue, " ")
	idx := -1
	for i, w := range words {
		lw := strings.ToLower(w)
		if lw == "this" || lw == "these" {
			idx = i
			break
		}
	}

	if idx > 0 {
		end := idx + 2
		if end >= len(words) {
			return strings.Join(words, " ")
		}
		return strings.Join(words[:end], " ") + "..."
	}
	return Truncate(clue, indicatorFallbackSize)
}

// Truncate cuts s to n runes, appending an ellipsis when something was removed.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// Prefix returns the first n runes of s without an ellipsis.
func Prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
