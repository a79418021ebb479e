// Package codec decodes tile images by sniffing their content and encodes the final image.
package codec

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register webp decoder
)

// supported container formats
const (
	PNG  = "png"
	JPEG = "jpeg"
	GIF  = "gif"
	BMP  = "bmp"
	TIFF = "tiff"
	WEBP = "webp"
)

var (
	// ErrFormatInference the content matches no known image format
	ErrFormatInference = errors.New("codec: image format inference failed")
	// ErrDecode the format was recognized but the payload is malformed
	ErrDecode = errors.New("codec: image decode failed")
	// ErrUnsupportedFormat no encoder for the requested format
	ErrUnsupportedFormat = errors.New("codec: unsupported output format")
)

var contentTypes = map[string]string{
	PNG:  "image/png",
	JPEG: "image/jpeg",
	GIF:  "image/gif",
	BMP:  "image/bmp",
	TIFF: "image/tiff",
	WEBP: "image/webp",
}

// Decode infers the container format from the data alone and decodes it
func Decode(data []byte) (image.Image, string, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); errors.Is(err, image.ErrFormat) {
		return nil, "", errors.Wrapf(ErrFormatInference, "%d bytes", len(data))
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, errors.Wrapf(ErrDecode, "%s: %v", format, err)
	}
	return img, format, nil
}

// Encode writes the image in the given format
func Encode(w io.Writer, img image.Image, format string) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case GIF:
		err = gif.Encode(w, img, nil)
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case WEBP:
		err = nativewebp.Encode(w, img, nil)
	}
	return errors.Wrapf(err, "encode %s", f)
}

// ParseFormat normalizes a format name, e.g. jpg -> jpeg
func ParseFormat(format string) (string, error) {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	switch f {
	case "jpg":
		f = JPEG
	case "tif":
		f = TIFF
	}
	if _, ok := contentTypes[f]; !ok {
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	return f, nil
}

// FormatFromPath derives the format from the file extension, ok is false for unknown extensions
func FormatFromPath(path string) (string, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// ContentType the mime type of a format
func ContentType(format string) string {
	f, err := ParseFormat(format)
	if err != nil {
		return "application/octet-stream"
	}
	return contentTypes[f]
}

// Extension the file extension for a format, including the dot
func Extension(format string) string {
	f, err := ParseFormat(format)
	if err != nil {
		return ""
	}
	if f == JPEG {
		return ".jpg"
	}
	return "." + f
}
