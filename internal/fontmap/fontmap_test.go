package fontmap

import "testing"

func TestStyleOf(t *testing.T) {
	tests := []struct {
		name     string
		fontName string
		want     Style
	}{
		{"regular", "ABCDEF+Calibri", Style{}},
		{"bold", "ABCDEF+Calibri-Bold", Style{Bold: true}},
		{"italic", "Georgia-Italic", Style{Italic: true}},
		{"oblique", "Helvetica-Oblique", Style{Italic: true}},
		{"bold oblique", "Helvetica-BoldOblique", Style{Bold: true, Italic: true}},
		{"lower case is not a marker", "Arial-bold", Style{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StyleOf(tt.fontName); got != tt.want {
				t.Errorf("StyleOf(%q) = %+v, want %+v", tt.fontName, got, tt.want)
			}
		})
	}
}

func TestResolveFallsBackToRegular(t *testing.T) {
	tests := []struct {
		style Style
		want  string
	}{
		{Style{}, "Helvetica"},
		{Style{Bold: true}, "Helvetica-Bold"},
		{Style{Italic: true}, "Helvetica-Oblique"},
		{Style{Bold: true, Italic: true}, "Helvetica"},
	}

	for _, tt := range tests {
		if got := Resolve(tt.style).Name(); got != tt.want {
			t.Errorf("Resolve(%+v) = %s, want %s", tt.style, got, tt.want)
		}
	}
}

func TestAscent(t *testing.T) {
	tests := []struct {
		fontName string
		want     float64
	}{
		{"Helvetica", 718},
		{"Times-Roman", 683},
		{"Courier-Bold", 629},
		{"MicrosoftSansSerif", 718},
		{"XYZ+Unknown", DefaultAscent},
	}

	for _, tt := range tests {
		if got := Ascent(tt.fontName); got != tt.want {
			t.Errorf("Ascent(%q) = %v, want %v", tt.fontName, got, tt.want)
		}
	}
}
