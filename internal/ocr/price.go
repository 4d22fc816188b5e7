package ocr

import "regexp"

// pricePattern matches one or more digits, a decimal point, exactly two digits
var pricePattern = regexp.MustCompile(`\d+\.\d{2}`)

// ParsePrice returns the first price-like token in the text, scanning left
// to right. Multiple numeric fields (subtotal, tax, total) are not
// disambiguated; the first match wins. The second return is false when no
// token is found, which is a valid empty result rather than an error.
func ParsePrice(text string) (string, bool) {
	match := pricePattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}
