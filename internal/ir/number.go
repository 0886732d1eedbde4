package ir

import "strconv"

// FormatValue renders v in its shortest exact decimal form: 3 not 3.0,
// 6.2 not 6.2000000000000002. Traces and responses carry numbers this way
// because canonical JSON forbids floats. NaN and the infinities render as
// "NaN", "+Inf" and "-Inf".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseValue is the inverse of FormatValue. The result is bit-exact for
// every finite value, and NaN and the infinities round-trip.
func ParseValue(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
