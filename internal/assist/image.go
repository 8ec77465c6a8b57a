package assist

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageSize is the largest upload accepted for captioning
const MaxImageSize = 10 << 20

// ValidateImage checks that data is a decodable image and returns its format
func ValidateImage(data []byte) (string, error) {
	const op = "validate_image"

	if len(data) == 0 {
		return "", invalid(op, "No image provided.")
	}
	if len(data) > MaxImageSize {
		return "", invalid(op, "Image is too large.")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// sniffing catches images in formats with no registered decoder
		if !strings.HasPrefix(http.DetectContentType(data), "image/") {
			return "", invalid(op, "File provided is not an image.")
		}
		return "", invalid(op, "Image format is not supported.")
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", invalid(op, "File provided is not a valid image.")
	}
	return format, nil
}
