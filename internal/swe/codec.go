package swe

import (
	"strings"
)

// Table holds bulk array values as rows of tokens.
type Table [][]string

// Column returns the i-th token of every row. Short rows yield "".
func (t Table) Column(i int) []string {
	out := make([]string, len(t))
	for r, row := range t {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// DecodeTable splits raw into rows on the block separator and each row into
// tokens on the token separator. Rows are trimmed of surrounding
// whitespace before splitting; tokens are trimmed too when the encoding
// collapses whitespace. A blank payload yields an empty table and a
// trailing block separator does not produce an extra row.
//
// Tokens that contain either separator cannot be recovered; callers choose
// separators that do not occur in the data. A row with no tokens decodes as
// a single empty token, and empty tokens at the edge of a row are lost when
// the token separator is whitespace.
func DecodeTable(raw string, enc Encoding) Table {
	if strings.TrimSpace(raw) == "" {
		return Table{}
	}
	blocks := strings.Split(raw, enc.BlockSeparator)
	if last := blocks[len(blocks)-1]; strings.TrimSpace(last) == "" {
		blocks = blocks[:len(blocks)-1]
	}

	table := make(Table, 0, len(blocks))
	for _, block := range blocks {
		tokens := strings.Split(strings.TrimSpace(block), enc.TokenSeparator)
		if enc.CollapseWhiteSpace {
			for i, tok := range tokens {
				tokens[i] = strings.TrimSpace(tok)
			}
		}
		table = append(table, tokens)
	}
	return table
}

// EncodeTable is the inverse of DecodeTable: tokens joined by the token
// separator, each row terminated by the block separator. The terminator
// keeps blank trailing rows distinct from the end of the payload.
func EncodeTable(t Table, enc Encoding) string {
	var b strings.Builder
	for _, row := range t {
		for j, tok := range row {
			if j > 0 {
				b.WriteString(enc.TokenSeparator)
			}
			b.WriteString(tok)
		}
		b.WriteString(enc.BlockSeparator)
	}
	return b.String()
}

// NormalizeDecimal rewrites a numeric token that uses the encoding's
// decimal separator into the "." form strconv understands.
func (e Encoding) NormalizeDecimal(token string) string {
	if e.DecimalSeparator == "" || e.DecimalSeparator == DefaultDecimalSeparator {
		return token
	}
	return strings.Replace(token, e.DecimalSeparator, DefaultDecimalSeparator, 1)
}
