// Package xsd decodes scalar leaf values: the lexical forms of XML Schema
// boolean, integer, floating point and string types.
package xsd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
)

// ParseBoolean accepts true, false, 1 and 0.
func ParseBoolean(parameter, s string) (ir.Boolean, error) {
	switch strings.TrimSpace(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, decode.InvalidParameterValuef(parameter, "%q is not a boolean", s)
}

// ParseCount parses a 32-bit signed integer (xs:int). Values outside that
// range are UnsupportedInput rather than truncated.
func ParseCount(parameter, s string) (ir.Count, error) {
	return ParseInteger(parameter, s, 32)
}

// ParseInteger parses a signed integer that must fit in bits bits:
// 16 for xs:short, 32 for xs:int, 64 for xs:long and xs:integer.
func ParseInteger(parameter, s string, bits int) (ir.Count, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(parameter, s, bits)
		}
		return 0, decode.InvalidParameterValuef(parameter, "%q is not an integer", s)
	}
	return ir.Count(n), nil
}

func outOfRange(parameter, s string, bits int) error {
	return decode.UnsupportedValue(parameter, fmt.Sprintf("integer %s exceeds the %d-bit range", s, bits))
}

// ParseQuantity parses an xs:double, including INF, -INF and NaN.
func ParseQuantity(parameter, s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "INF", "+INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	// strconv also accepts "Inf", "infinity" and hex floats, none of which
	// are XML Schema lexical forms.
	if s == "" || strings.ContainsAny(s, "xXiInN_") {
		return 0, decode.InvalidParameterValuef(parameter, "%q is not a number", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, decode.InvalidParameterValuef(parameter, "%q is not a number", s)
	}
	return f, nil
}

// ParseText returns s unchanged.
func ParseText(s string) ir.Text { return ir.Text(s) }

// ParseAny infers the narrowest value for s: boolean keywords, then a
// 32-bit count, then a quantity, then text.
func ParseAny(s string) ir.Value {
	t := strings.TrimSpace(s)
	if t == "true" || t == "false" {
		b, _ := ParseBoolean("", t)
		return b
	}
	if c, err := ParseCount("", t); err == nil {
		return c
	}
	if f, err := ParseQuantity("", t); err == nil {
		return ir.Quantity{Value: f}
	}
	return ir.Text(s)
}
