package answer

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind declares how a reference answer is compared.
type Kind string

// Supported answer kinds. Anything unrecognized is graded as text.
const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
	KindText  Kind = "text"
)

// FloatTolerance is the maximum absolute difference accepted for float answers.
const FloatTolerance = 1e-6

// boundarySlack keeps differences that are exactly FloatTolerance in decimal
// (e.g. 3.141592 vs 3.141591) inside the tolerance after binary rounding.
const boundarySlack = 1e-12

// ParseKind normalizes a stored answer type. Empty or unknown values map to KindText.
func ParseKind(raw string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindInt:
		return KindInt
	case KindFloat:
		return KindFloat
	default:
		return KindText
	}
}

// Check reports whether submitted matches reference under the given kind.
func Check(submitted, reference string, kind Kind) bool {
	switch ParseKind(string(kind)) {
	case KindInt:
		return equalInt(submitted, reference)
	case KindFloat:
		return equalFloat(submitted, reference)
	default:
		return normalizeText(submitted) == normalizeText(reference)
	}
}

// equalInt compares arbitrarily large integers; any parse failure is a mismatch.
func equalInt(a, b string) bool {
	x, ok := new(big.Int).SetString(strings.TrimSpace(a), 10)
	if !ok {
		return false
	}
	y, ok := new(big.Int).SetString(strings.TrimSpace(b), 10)
	if !ok {
		return false
	}
	return x.Cmp(y) == 0
}

func equalFloat(a, b string) bool {
	x, err := parseDecimal(a)
	if err != nil {
		return false
	}
	y, err := parseDecimal(b)
	if err != nil {
		return false
	}
	return math.Abs(x-y) <= FloatTolerance+boundarySlack
}

func parseDecimal(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
}

// normalizeText collapses whitespace runs and upper-cases the result.
func normalizeText(v string) string {
	return strings.ToUpper(strings.Join(strings.Fields(v), " "))
}
