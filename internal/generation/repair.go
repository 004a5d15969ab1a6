package generation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// RepairStage names the repair pass after which a payload first parsed.
type RepairStage string

// Repair passes, in the order they are applied.
const (
	StageQuoteKeys      RepairStage = "quote_keys"
	StageSingleQuotes   RepairStage = "single_quotes"
	StageTrailingCommas RepairStage = "trailing_commas"
	StageMissingCommas  RepairStage = "missing_commas"
	StageBareValues     RepairStage = "bare_values"
)

var repairPasses = []struct {
	stage RepairStage
	apply func(string) string
}{
	{StageQuoteKeys, quoteKeys},
	{StageSingleQuotes, singleToDoubleQuotes},
	{StageTrailingCommas, removeTrailingCommas},
	{StageMissingCommas, insertMissingCommas},
	{StageBareValues, quoteBareValues},
}

// Repair applies the textual repair passes cumulatively, checking after each
// one whether the payload has become valid JSON. It returns the repaired
// text and the stage that fixed it, or ErrUnrepairable.
func Repair(payload string) (string, RepairStage, error) {
	current := payload
	for _, pass := range repairPasses {
		current = pass.apply(current)
		if json.Valid([]byte(current)) {
			return current, pass.stage, nil
		}
	}
	return "", "", ErrUnrepairable
}

// SalvageReport counts the objects kept and dropped by Salvage.
type SalvageReport struct {
	Recovered int
	Discarded int
}

// Salvage recovers the individually parseable objects of a payload that is
// not valid as a whole. Each balanced {...} region is parsed, or repaired
// and parsed, on its own. A parsed object is kept only if keep accepts it
// (a nil keep accepts everything). Survivors are reassembled into a JSON
// array in their original order. It returns ErrUnrepairable if nothing
// survives.
func Salvage(payload string, keep func(obj []byte) bool) (string, SalvageReport, error) {
	var report SalvageReport
	kept := make([]string, 0)

	for _, obj := range balancedObjects(payload) {
		if !json.Valid([]byte(obj)) {
			fixed, _, err := Repair(obj)
			if err != nil {
				report.Discarded++
				continue
			}
			obj = fixed
		}
		if keep != nil && !keep([]byte(obj)) {
			report.Discarded++
			continue
		}
		kept = append(kept, obj)
	}

	report.Recovered = len(kept)
	if len(kept) == 0 {
		return "", report, ErrUnrepairable
	}
	return "[" + strings.Join(kept, ",") + "]", report, nil
}

// balancedObjects returns each outermost balanced {...} region in s. An
// opener that never closes is skipped so that complete objects nested
// after it, as in a truncated envelope, are still found.
func balancedObjects(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		if s[i] != '{' {
			i++
			continue
		}
		obj, ok := MatchBalanced(s[i:], '{', '}')
		if !ok {
			i++
			continue
		}
		out = append(out, obj)
		i += len(obj)
	}
	return out
}

// stringEnd finds the closing quote of the string literal opening at s[i].
// A single quote only closes the literal when the next non-space byte ends
// a value or key (or the input ends), so apostrophes inside single-quoted
// prose survive. It returns len(s), false for an unterminated literal.
func stringEnd(s string, i int) (int, bool) {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			if quote == '"' {
				return j, true
			}
			k := skipSpace(s, j+1)
			if k == len(s) || strings.IndexByte(",}]:", s[k]) >= 0 {
				return j, true
			}
		}
	}
	return len(s), false
}

// opensLiteral reports whether quote character c starts a string literal
// given prev, the last non-space byte outside a literal (0 at the start).
// A single quote only opens one in key or value position; anywhere else it
// is an apostrophe in bare text.
func opensLiteral(c, prev byte) bool {
	switch c {
	case '"':
		return true
	case '\'':
		return prev == 0 || strings.IndexByte(":,[{", prev) >= 0
	}
	return false
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}

// copyString writes the literal at s[i] unchanged and returns the index
// just past it.
func copyString(b *strings.Builder, s string, i int) int {
	end, closed := stringEnd(s, i)
	if !closed {
		b.WriteString(s[i:])
		return len(s)
	}
	b.WriteString(s[i : end+1])
	return end + 1
}

// quoteKeys turns {name: ...} into {"name": ...}.
func quoteKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	var prev byte
	for i := 0; i < len(s); {
		c := s[i]
		if opensLiteral(c, prev) {
			i = copyString(&b, s, i)
			prev = c
			continue
		}
		if (prev == '{' || prev == ',') && isIdentStart(c) {
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			if k := skipSpace(s, j); k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
				prev = '"'
			} else {
				b.WriteString(s[i:j])
				prev = s[j-1]
			}
			i = j
			continue
		}
		b.WriteByte(c)
		if !isSpace(c) {
			prev = c
		}
		i++
	}
	return b.String()
}

// singleToDoubleQuotes rewrites 'text' literals as "text", escaping inner
// double quotes and unescaping \'.
func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	var prev byte
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			i = copyString(&b, s, i)
			prev = '"'
		case c == '\'' && opensLiteral(c, prev):
			end, closed := stringEnd(s, i)
			b.WriteByte('"')
			for j := i + 1; j < end && j < len(s); j++ {
				switch {
				case s[j] == '\\' && j+1 < len(s) && s[j+1] == '\'':
					b.WriteByte('\'')
					j++
				case s[j] == '\\' && j+1 < len(s):
					b.WriteByte('\\')
					b.WriteByte(s[j+1])
					j++
				case s[j] == '"':
					b.WriteString(`\"`)
				default:
					b.WriteByte(s[j])
				}
			}
			if closed {
				b.WriteByte('"')
			}
			i = end + 1
			prev = '"'
		default:
			b.WriteByte(c)
			if !isSpace(c) {
				prev = c
			}
			i++
		}
	}
	return b.String()
}

// removeTrailingCommas drops a comma that directly precedes '}' or ']'.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev byte
	for i := 0; i < len(s); {
		c := s[i]
		if opensLiteral(c, prev) {
			i = copyString(&b, s, i)
			prev = c
			continue
		}
		if c == ',' {
			if k := skipSpace(s, i+1); k < len(s) && (s[k] == '}' || s[k] == ']') {
				i++
				continue
			}
		}
		b.WriteByte(c)
		if !isSpace(c) {
			prev = c
		}
		i++
	}
	return b.String()
}

// insertMissingCommas turns "}{" (with optional whitespace) into "},{".
func insertMissingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	var prev byte
	for i := 0; i < len(s); {
		c := s[i]
		if opensLiteral(c, prev) {
			i = copyString(&b, s, i)
			prev = c
			continue
		}
		b.WriteByte(c)
		if c == '}' {
			if k := skipSpace(s, i+1); k < len(s) && s[k] == '{' {
				b.WriteByte(',')
			}
		}
		if !isSpace(c) {
			prev = c
		}
		i++
	}
	return b.String()
}

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func isJSONLiteral(token string) bool {
	switch token {
	case "true", "false", "null":
		return true
	}
	return jsonNumber.MatchString(token)
}

// quoteBareValues turns {"k": some words} into {"k": "some words"}. A bare
// value runs to the next ',', '}' or ']'. JSON literals are left alone.
func quoteBareValues(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	var prev byte
	for i := 0; i < len(s); {
		c := s[i]
		if opensLiteral(c, prev) {
			i = copyString(&b, s, i)
			prev = c
			continue
		}
		b.WriteByte(c)
		i++
		if !isSpace(c) {
			prev = c
		}
		if c != ':' {
			continue
		}

		k := skipSpace(s, i)
		b.WriteString(s[i:k])
		i = k
		if i >= len(s) || strings.IndexByte(`"'{[`, s[i]) >= 0 {
			continue
		}

		j := i
		for j < len(s) && strings.IndexByte(",}]", s[j]) < 0 {
			j++
		}
		raw := s[i:j]
		token := strings.TrimRight(raw, " \t\r\n")
		if token == "" || isJSONLiteral(token) {
			b.WriteString(raw)
		} else {
			quoted, _ := json.Marshal(token)
			b.Write(quoted)
			b.WriteString(raw[len(token):])
		}
		if token != "" {
			prev = token[len(token)-1]
		}
		i = j
	}
	return b.String()
}
