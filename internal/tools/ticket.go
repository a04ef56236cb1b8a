package tools

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const ticketSuffixLen = 6

// NewTicketID returns PREFIX-XXXXXX with six upper-case hex characters
// taken from a random UUID.
func NewTicketID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:ticketSuffixLen])
}

// NormalizeTicketID turns a ticket id as spoken or typed by a caller
// ("del dbe 1a6", "del-dbe1a6", "dbe1a6") into its stored form.
func NormalizeTicketID(raw, prefix string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	compact := b.String()
	if compact == "" {
		return ""
	}
	if prefix != "" && strings.HasPrefix(compact, prefix) && len(compact) > len(prefix) {
		return prefix + "-" + compact[len(prefix):]
	}
	if prefix != "" && len(compact) == ticketSuffixLen {
		return prefix + "-" + compact
	}
	return compact
}
