package feed

import "strings"

const (
	delimiter = ','
	quote     = '"'
)

// Decoder splits a single CSV line into fields. It never fails; malformed
// quoting degrades to a best-effort split.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Run(line string) []string {
	fields := make([]string, 0, 9)

	var current strings.Builder
	inQuotedField := false
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == quote:
			if inQuotedField && i+1 < len(runes) && runes[i+1] == quote {
				current.WriteRune(quote)
				i++
				continue
			}
			inQuotedField = !inQuotedField
		case r == delimiter && !inQuotedField:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}
