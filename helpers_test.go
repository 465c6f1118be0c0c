package docent

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"  trim me  ", "trim-me"},
		{"IMG_2041 (1)", "img-2041-1"},
		{"서울 야경", "서울-야경"},
		{"---", ""},
		{"café--au lait", "café-au-lait"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{11 << 20, "11M"},
		{1536, "1536B"},
		{0, "0M"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
