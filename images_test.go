package docent

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func encodeWith(t *testing.T, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }), "png"},
		{"jpeg", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) }), "jpeg"},
		{"gif", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return gif.Encode(b, m, nil) }), "gif"},
		{"bmp", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) }), "bmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, got, err := detectFormat(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("detectFormat: %v", err)
			}
			if got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
			if cfg.Width != 8 || cfg.Height != 8 {
				t.Errorf("size = %dx%d, want 8x8", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestDetectFormatGarbage(t *testing.T) {
	_, _, err := detectFormat(bytes.NewReader([]byte("GIF? no, just text")))
	if !errors.Is(err, errUnsupportedFormat) {
		t.Fatalf("err = %v, want errUnsupportedFormat", err)
	}
}

func TestCheckFormatRejectsBMP(t *testing.T) {
	a := &App{Config: Config{UploadDir: t.TempDir()}}
	if err := mkdirAll(a.uploadTempDir()); err != nil {
		t.Fatal(err)
	}
	data := encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) })
	path := filepath.Join(a.uploadTempDir(), "x.png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	err := checkFormat(&upload{TempPath: path})
	if !errors.Is(err, errUnsupportedFormat) {
		t.Fatalf("err = %v, want errUnsupportedFormat", err)
	}
}

func TestResizePreview(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{400, 300, 400, 300},
		{1600, 900, 800, 450},
		{4000, 2, 800, 1},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))); err != nil {
			t.Fatal(err)
		}
		out, err := resizePreview(&buf)
		if err != nil {
			t.Fatalf("%dx%d: %v", tt.w, tt.h, err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			t.Fatal(err)
		}
		if format != "jpeg" || cfg.Width != tt.wantW || cfg.Height != tt.wantH {
			t.Errorf("%dx%d -> %s %dx%d, want jpeg %dx%d", tt.w, tt.h, format, cfg.Width, cfg.Height, tt.wantW, tt.wantH)
		}
	}
}

func TestAllowedExtension(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg":      true,
		"a.JPEG":     true,
		"photo.png":  true,
		"anim.gif":   false,
		"pic.webp":   false,
		"noext":      false,
		"trick.png.": false,
	} {
		if got := allowedExtension(name); got != want {
			t.Errorf("allowedExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRepoPath(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"", "cat.png", "uploaded_cat.png"},
		{"images", "My Holiday Photo.JPG", "images/uploaded_my-holiday-photo.jpg"},
		{"/a/b/", "고양이 사진.png", "a/b/uploaded_고양이-사진.png"},
		{"", "!!!.jpeg", "uploaded_image.jpeg"},
		{"", "../../etc/passwd.png", "uploaded_passwd.png"},
	}
	for _, tt := range tests {
		cfg := Config{PathPrefix: tt.prefix}
		cfg.setDefaults()
		if got := cfg.RepoPath(tt.name); got != tt.want {
			t.Errorf("RepoPath(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestRemovePreviewIgnoresForeignPaths(t *testing.T) {
	a := &App{Config: Config{UploadDir: t.TempDir()}}
	if err := mkdirAll(a.previewDir()); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(a.Config.UploadDir, "keep.jpg")
	if err := os.WriteFile(keep, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	a.removePreview("https://example.com/keep.jpg")
	a.removePreview("/previews/../keep.jpg")

	if _, err := os.Stat(keep); err != nil {
		t.Errorf("file outside preview dir removed: %v", err)
	}
}

// pngWithDimensions returns a PNG whose header declares w x h pixels. Only the
// header is valid, which is all DecodeConfig reads.
func pngWithDimensions(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// Signature (8), IHDR length (4), "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestCheckImageFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}
	pngData := encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) })

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"png", write("ok.png", pngData), nil},
		{"png named jpg", write("renamed.jpg", pngData), nil},
		{"text file", write("notes.txt", []byte("hello")), errFileExtension},
		{"text named png", write("notes.png", []byte("hello")), errUnsupportedFormat},
		{"bmp named png", write("old.png", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) })), errUnsupportedFormat},
		{"at pixel budget", write("edge.png", pngWithDimensions(t, 8000, 5000)), nil},
		{"over pixel budget", write("huge.png", pngWithDimensions(t, 16000, 16000)), errImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckImageFile(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
