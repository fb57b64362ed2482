package extract

import (
	"reflect"
	"testing"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  NASA   confirms curvature ", "NASA confirms curvature"},
		{"markup", "<p>Satellite <b>imagery</b> shows curvature</p>", "Satellite imagery shows curvature"},
		{"script dropped", "<div>Visible<script>alert(1)</script></div>", "Visible"},
		{"entity", "AT&amp;T reported", "AT&T reported"},
		{"blank", "   ", ""},
		{"only tags", "<br><hr>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseEvidenceText(t *testing.T) {
	text := "Satellite imagery shows curvature\n\n   \n<p>Ships disappear hull-first</p>\r\nSatellite imagery shows curvature\n"

	got := ParseEvidenceText(text)
	want := []string{
		"Satellite imagery shows curvature",
		"Ships disappear hull-first",
		"Satellite imagery shows curvature",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseEvidenceText() = %q, want %q", got, want)
	}
}

func TestParseEvidenceText_Empty(t *testing.T) {
	if got := ParseEvidenceText(""); len(got) != 0 {
		t.Errorf("expected no evidence, got %q", got)
	}
}

func TestNormalizeEvidence(t *testing.T) {
	got := NormalizeEvidence([]string{"", "  a  ", "<i>b</i>"})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("unexpected evidence: %q", got)
	}
}

func TestParseHistory(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"0.2, 0.3", []string{"0.2", "0.3"}},
		{"0.8,,0.9,", []string{"0.8", "0.9"}},
		{"", []string{}},
		{" , ", []string{}},
		{"0.5, abc", []string{"0.5", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseHistory(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseHistory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeClaim(t *testing.T) {
	if got := NormalizeClaim("  <em>Earth</em>   is flat "); got != "Earth is flat" {
		t.Errorf("unexpected claim: %q", got)
	}
}
