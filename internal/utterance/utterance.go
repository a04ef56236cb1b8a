// Package utterance holds the pure text helpers used on every turn:
// picking the caller's latest utterance out of a transcript, spotting
// confirmations and closings, and guessing the spoken language.
package utterance

import (
	"strings"
	"unicode"
)

// Line is one speaker-tagged entry of a platform transcript.
type Line struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LatestUser returns the most recent non-empty user utterance, trimmed.
func LatestUser(transcript []Line) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if !strings.EqualFold(transcript[i].Role, "user") {
			continue
		}
		if text := strings.TrimSpace(transcript[i].Content); text != "" {
			return text
		}
	}
	return ""
}

var confirmations = []string{
	"yes", "yeah", "yep", "please", "go ahead", "confirm",
	"sure", "okay", "ok", "proceed",
}

// IsConfirmation reports whether text contains an affirmation. Matching is a
// case-insensitive substring test, so "okay, register it" and "Yes please"
// both confirm.
func IsConfirmation(text string) bool {
	return containsAny(strings.ToLower(text), confirmations)
}

var closings = []string{
	"that's all", "thats all", "that is all", "nothing else", "no thanks",
	"no thank you", "bye", "goodbye", "bas itna hi", "bas itna", "dhanyavaad",
	"shukriya", "bas ehna hi",
}

// IsClosing reports whether the caller is wrapping up the call.
func IsClosing(text string) bool {
	return containsAny(strings.ToLower(text), closings)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Languages the assistant speaks.
const (
	English = "english"
	Hindi   = "hindi"
	Punjabi = "punjabi"
)

var hindiWords = []string{
	"namaste", "dhanyavaad", "shukriya", "kaise", "kya", "hai", "hoon",
	"aapki", "mera", "paani", "bijli", "saaf", "ganda",
}

var punjabiWords = []string{
	"sat sri akal", "satsriakal", "tuhadi", "tussi", "ki", "haan",
	"haiga", "karde", "karna",
}

// DetectLanguage guesses the caller's language. Devanagari or Gurmukhi
// script decides outright; romanized speech is scored on marker words and
// defaults to English.
func DetectLanguage(text string) string {
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Devanagari):
			return Hindi
		case unicode.In(r, unicode.Gurmukhi):
			return Punjabi
		}
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	joined := " " + strings.Join(words, " ") + " "

	hindi := score(joined, hindiWords)
	punjabi := score(joined, punjabiWords)
	switch {
	case punjabi > hindi:
		return Punjabi
	case hindi > 0:
		return Hindi
	}
	return English
}

// score counts marker words (or phrases) present as whole words.
func score(joined string, markers []string) int {
	n := 0
	for _, m := range markers {
		if strings.Contains(joined, " "+m+" ") {
			n++
		}
	}
	return n
}
