package docent

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxPreviewWidth = 800
	jpegQuality     = 80
	tempSubdir      = "tmp"
	previewSubdir   = "previews"
	previewRoute    = "/previews/"

	// maxPixels bounds the decoded size of an upload, whatever its file size.
	maxPixels = 40_000_000
)

var (
	errUnsupportedFormat = errors.New("unsupported image format")
	errImageTooLarge     = errors.New("image dimensions too large")
	errFileExtension     = errors.New("file extension not allowed")
)

// Formats the describer accepts, as named by image.DecodeConfig.
var supportedFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// upload is a received file staged on local disk.
type upload struct {
	OriginalName string
	TempPath     string
	Ext          string
}

func allowedExtension(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

func (a *App) uploadTempDir() string {
	return filepath.Join(a.Config.UploadDir, tempSubdir)
}

func (a *App) previewDir() string {
	return filepath.Join(a.Config.UploadDir, previewSubdir)
}

// saveUpload copies the multipart file to a uniquely named temp file.
func (a *App) saveUpload(fh *multipart.FileHeader) (*upload, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	dst := filepath.Join(a.uploadTempDir(), uuid.NewString()+ext)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	return &upload{OriginalName: fh.Filename, TempPath: dst, Ext: ext}, nil
}

// detectFormat reads just enough of r to name its image format and size.
func detectFormat(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return image.Config{}, "", errUnsupportedFormat
		}
		return image.Config{}, "", fmt.Errorf("decode image header: %w", err)
	}
	return cfg, format, nil
}

// CheckImageFile reports whether the file at path may be published and
// described: a jpg, jpeg or png name whose content decodes as png, jpeg, gif
// or webp within the pixel budget.
func CheckImageFile(path string) error {
	if !allowedExtension(path) {
		return fmt.Errorf("%w: %q", errFileExtension, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, format, err := detectFormat(f)
	if err != nil {
		return err
	}
	if !supportedFormats[format] {
		return fmt.Errorf("%w: %s", errUnsupportedFormat, format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return fmt.Errorf("%w: %dx%d", errImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// checkFormat rejects uploads whose content is not a supported image,
// regardless of the file extension.
func checkFormat(up *upload) error {
	return CheckImageFile(up.TempPath)
}

// resizePreview encodes img as JPEG, scaling it down to maxPreviewWidth.
func resizePreview(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxPreviewWidth {
		newH := h * maxPreviewWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxPreviewWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// writePreview stores a browser-sized JPEG copy of the upload and returns
// the URL it is served under.
func (a *App) writePreview(up *upload) (string, error) {
	f, err := os.Open(up.TempPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := resizePreview(f)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(a.previewDir(), name), data, 0o644); err != nil {
		return "", fmt.Errorf("write preview: %w", err)
	}
	return previewRoute + name, nil
}

// removePreview deletes a preview written by writePreview. Other URLs are ignored.
func (a *App) removePreview(previewURL string) {
	if !strings.HasPrefix(previewURL, previewRoute) {
		return
	}
	name := path.Base(previewURL)
	if name == "." || name == "/" || name == ".." {
		return
	}
	_ = os.Remove(filepath.Join(a.previewDir(), name))
}

// RepoPath names an uploaded file inside the repository.
func (c *Config) RepoPath(originalName string) string {
	return c.PathPrefix + "uploaded_" + slugifyFilename(originalName) + strings.ToLower(filepath.Ext(originalName))
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	if s := Slugify(base); s != "" {
		return s
	}
	return "image"
}
