package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func parseStrict(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v map[string]interface{}
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("test fixture %q is not valid JSON: %v", s, err)
	}
	return v
}

func TestExtractJSON_ProseAroundObject(t *testing.T) {
	objects := []string{
		`{"bankName":"Alpha Bank","accountNumber":"1234567890"}`,
		`{"transactions":[{"date":"01/02/2024","description":"Coffee","debit":"3.50","credit":"","balance":"96.50"}]}`,
		`{"nested":{"a":[1,2,3]},"flag":true,"none":null}`,
	}
	affixes := []struct{ prefix, suffix string }{
		{"", ""},
		{"Here is the JSON you asked for:\n", ""},
		{"", "\nLet me know if you need anything else."},
		{"Sure! ```json\n", "\n```"},
		{"Result = ", " (end)"},
	}

	for _, obj := range objects {
		want := parseStrict(t, obj)
		for _, a := range affixes {
			got, err := ExtractJSON(a.prefix+obj+a.suffix, "metadata")
			if err != nil {
				t.Errorf("ExtractJSON(%q) error = %v", a.prefix+obj+a.suffix, err)
				continue
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("ExtractJSON(%q) mismatch (-want +got):\n%s", a.prefix+obj+a.suffix, diff)
			}
		}
	}
}

func TestExtractJSON_CleanInputUnchanged(t *testing.T) {
	clean := `{"a":"x","b":[{"c":"d"}],"e":12.5}`
	got, err := ExtractJSON(clean, "transactions")
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if diff := cmp.Diff(parseStrict(t, clean), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractJSON_Repairs(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"trailing comma in object", `{"a":1,}`, `{"a":1}`},
		{"trailing comma in array", `{"a":[1,2,],"b":3}`, `{"a":[1,2],"b":3}`},
		{"trailing comma before newline", "{\"a\":1,\n}", `{"a":1}`},
		{"newline inside string", "{\"description\":\"CARD PAYMENT\nTESCO\"}", `{"description":"CARD PAYMENT TESCO"}`},
		{"crlf runs", "{\r\n\"a\":\r\n\r\n\"b\"\r\n}", `{"a":"b"}`},
		{"whitespace runs", "{\"a\":   \"x\t\ty\"}", `{"a":"x y"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.reply, "metadata")
			if err != nil {
				t.Fatalf("ExtractJSON(%q) error = %v", tt.reply, err)
			}
			if diff := cmp.Diff(parseStrict(t, tt.want), got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractJSON_KeepsLongNumbersExact(t *testing.T) {
	got, err := ExtractJSON(`{"accountNumber": 123456789012345678}`, "metadata")
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if meta := transformMetadata(got); meta.AccountNumber != "123456789012345678" {
		t.Errorf("AccountNumber = %q, want 123456789012345678", meta.AccountNumber)
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	for _, reply := range []string{"", "I could not find any data.", "[1,2,3]", "only an opening {", "} backwards {"} {
		_, err := ExtractJSON(reply, "transactions")
		var malformed *EmptyOrMalformedReplyError
		if !errors.As(err, &malformed) {
			t.Errorf("ExtractJSON(%q) error = %v, want EmptyOrMalformedReplyError", reply, err)
			continue
		}
		if malformed.Label != "transactions" {
			t.Errorf("Label = %q, want transactions", malformed.Label)
		}
	}
}

func TestExtractJSON_Unrepairable(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"unquoted keys", `{bankName: "Alpha"}`},
		{"unbalanced braces", `{"a":{"b":1}`},
		{"truncated", `{"transactions":[{"date":"01/02"}`},
		{"two objects", `{"a":1} and {"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractJSON(tt.reply, "metadata")
			var repairErr *JSONRepairFailedError
			if !errors.As(err, &repairErr) {
				t.Fatalf("ExtractJSON(%q) error = %v, want JSONRepairFailedError", tt.reply, err)
			}
			if repairErr.Label != "metadata" || repairErr.Err == nil {
				t.Errorf("unexpected error contents: %+v", repairErr)
			}
		})
	}
}

func TestExtractJSON_ExcerptIsBounded(t *testing.T) {
	reply := `{"description": "` + strings.Repeat("x", 5000) + `", broken}`

	_, err := ExtractJSON(reply, "transactions")
	var repairErr *JSONRepairFailedError
	if !errors.As(err, &repairErr) {
		t.Fatalf("expected JSONRepairFailedError, got %v", err)
	}
	if len(repairErr.Excerpt) > maxExcerpt+len("...") {
		t.Errorf("excerpt length = %d, want at most %d", len(repairErr.Excerpt), maxExcerpt+3)
	}
	if !strings.HasPrefix(repairErr.Excerpt, `{"description": "xxx`) {
		t.Errorf("excerpt should be a prefix of the repaired text, got %q", repairErr.Excerpt[:30])
	}
}

func TestExtractJSON_ExcerptKeepsRunesWhole(t *testing.T) {
	// The prefix is 9 bytes, so the 200-byte cut lands inside a three-byte "₹".
	reply := `{"d": "xx` + strings.Repeat("₹", 400) + `", broken}`

	_, err := ExtractJSON(reply, "transactions")
	var repairErr *JSONRepairFailedError
	if !errors.As(err, &repairErr) {
		t.Fatalf("expected JSONRepairFailedError, got %v", err)
	}
	if !utf8.ValidString(repairErr.Excerpt) {
		t.Errorf("excerpt is not valid UTF-8: %q", repairErr.Excerpt)
	}
	if !strings.HasSuffix(repairErr.Excerpt, "₹...") {
		t.Errorf("excerpt should end on a whole rune, got %q", repairErr.Excerpt)
	}
}
