package pipeline

import "regexp"

// transactionHeaders are tried in order; the first one found wins even if a
// later one occurs earlier in the text.
var transactionHeaders = []string{
	"Statement of Transactions",
	"Transaction Details",
	"Transaction History",
	"Account Activity",
	"Transactions",
	"Date Description",
	"Date Particulars",
	"Value Date",
}

var transactionHeaderPatterns = compileHeaders(transactionHeaders)

func compileHeaders(headers []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(headers))
	for i, h := range headers {
		patterns[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(h))
	}
	return patterns
}

// TransactionWindow returns the part of the page text starting at the first
// recognised section header. Without a header the whole text is returned.
func TransactionWindow(pageText string) string {
	for _, re := range transactionHeaderPatterns {
		if loc := re.FindStringIndex(pageText); loc != nil {
			return pageText[loc[0]:]
		}
	}
	return pageText
}
