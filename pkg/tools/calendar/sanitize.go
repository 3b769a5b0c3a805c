package calendar

import "regexp"

// Calendar text fields are user- and attendee-controlled and end up inside
// rendered chat components, so the same scrubbing the original data path
// applies happens here: script blocks, javascript: URLs, and inline event
// handlers are stripped.
var (
	scriptRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	jsURLRe   = regexp.MustCompile(`(?i)javascript:`)
	handlerRe = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// SanitizeString strips dangerous markup from a single text field.
func SanitizeString(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = jsURLRe.ReplaceAllString(s, "")
	s = handlerRe.ReplaceAllString(s, "")
	return s
}

// Sanitize walks an arbitrary decoded JSON value and scrubs every string in
// it. Maps and slices are rewritten in place.
func Sanitize(v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeString(val)
	case map[string]any:
		for k, elem := range val {
			val[k] = Sanitize(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = Sanitize(elem)
		}
		return val
	default:
		return v
	}
}
