package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// IDSource tells which rule produced a resolved account identifier.
type IDSource string

const (
	SourceMetadata  IDSource = "metadata"
	SourceOCRText   IDSource = "ocr_text"
	SourcePrevious  IDSource = "previous_page"
	SourceSynthetic IDSource = "synthetic"
)

// accountNumberPatterns are tried in order against the raw OCR text.
var accountNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:account|a/c|acct)\s*(?:no\.?|number|num\.?|#)\s*[:\-]?\s*([0-9]{6,18})\b`),
	regexp.MustCompile(`(?i)\b(?:savings|current|checking)\s*(?:a/c|account)\s*(?:no\.?|number)?\s*[:\-]?\s*([0-9]{6,18})\b`),
	regexp.MustCompile(`\b([0-9]{10,18})\b`),
}

// Resolver decides which account a page belongs to. It remembers the last
// identifier it handed out so continuation pages stay with their account.
type Resolver struct {
	previous string
	now      func() time.Time
}

// NewResolver returns a Resolver that reads the time from now when it has to
// invent an identifier. A nil now uses time.Now.
func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

// Resolve returns the identifier for a page and records it as the previous
// one. The result is never empty.
func (r *Resolver) Resolve(meta AccountMetadata, pageText string) (string, IDSource) {
	id, source := r.pick(meta, pageText)
	r.previous = id
	return id, source
}

// Previous returns the identifier resolved for the last page, or "".
func (r *Resolver) Previous() string {
	return r.previous
}

func (r *Resolver) pick(meta AccountMetadata, pageText string) (string, IDSource) {
	if n := strings.TrimSpace(meta.AccountNumber); n != "" {
		return n, SourceMetadata
	}
	if n := MatchAccountNumber(pageText); n != "" {
		return n, SourceOCRText
	}
	if r.previous != "" {
		return r.previous, SourcePrevious
	}
	return syntheticID(meta.BankName, r.now()), SourceSynthetic
}

// MatchAccountNumber finds an account-number-shaped token in OCR text.
func MatchAccountNumber(text string) string {
	for _, re := range accountNumberPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

func syntheticID(bankName string, now time.Time) string {
	bank := strings.ToLower(strings.Join(strings.Fields(bankName), "-"))
	if bank == "" {
		bank = "unknown-bank"
	}
	return fmt.Sprintf("%s_%d", bank, now.UnixMilli())
}
