package calendar

import (
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "script block removed",
			in:   `Meeting <script>alert("xss")</script> notes`,
			want: "Meeting  notes",
		},
		{
			name: "script with attributes removed",
			in:   `<script type="text/javascript">evil()</script>ok`,
			want: "ok",
		},
		{
			name: "javascript url stripped",
			in:   "click javascript:alert(1) here",
			want: "click alert(1) here",
		},
		{
			name: "inline handler stripped",
			in:   `<img src=x onerror=alert(1)>`,
			want: `<img src=x alert(1)>`,
		},
		{
			name: "case insensitive",
			in:   "JAVASCRIPT:evil OnClick= x",
			want: "evil  x",
		},
		{
			name: "clean text untouched",
			in:   "Weekly sync with the design team",
			want: "Weekly sync with the design team",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeString(tc.in); got != tc.want {
				t.Errorf("SanitizeString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeWalksNestedValues(t *testing.T) {
	v := map[string]any{
		"summary": `<script>x</script>Lunch`,
		"attendees": []any{
			map[string]any{"displayName": "javascript:steal()"},
		},
		"count": 3,
	}

	out := Sanitize(v).(map[string]any)

	if out["summary"] != "Lunch" {
		t.Errorf("summary = %q", out["summary"])
	}
	attendee := out["attendees"].([]any)[0].(map[string]any)
	if strings.Contains(attendee["displayName"].(string), "javascript:") {
		t.Errorf("displayName not sanitized: %q", attendee["displayName"])
	}
	if out["count"] != 3 {
		t.Errorf("non-string value changed: %v", out["count"])
	}
}
