package service

import (
	"bytes"
	"image"

	// Registered for image.DecodeConfig sniffing of provider payloads.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ImageInfo describes a validated provider payload.
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// ContentType returns the MIME type for the sniffed format, defaulting to
// PNG when the format is unknown.
func (i ImageInfo) ContentType() string {
	switch i.Format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// Extension returns the file extension for the sniffed format.
func (i ImageInfo) Extension() string {
	switch i.Format {
	case "jpeg":
		return "jpg"
	case "gif", "webp":
		return i.Format
	default:
		return "png"
	}
}

// sniffImage decodes only the header of the payload to record dimensions and
// format. An unrecognized format is not an error: size validation already
// passed, and the provider may emit formats we do not decode.
func sniffImage(data []byte) ImageInfo {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}
}
