package storage

import (
	"bytes"
	"fmt"
	"io"

	"study-mitra/internal/domain"

	"github.com/disintegration/imaging"
)

const (
	photoContentType = "image/jpeg"
	photoQuality     = 85
)

// SquareJPEGNormalizer center-crops an uploaded image to a size x size JPEG.
// EXIF orientation is applied before cropping.
type SquareJPEGNormalizer struct {
	size int
}

func NewSquareJPEGNormalizer(size int) *SquareJPEGNormalizer {
	if size <= 0 {
		size = 256
	}
	return &SquareJPEGNormalizer{size: size}
}

func (n *SquareJPEGNormalizer) Normalize(r io.Reader) ([]byte, string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", domain.NewError(domain.CodeUnsupportedMediaType, "uploaded file is not a supported image", err)
	}

	thumb := imaging.Fill(img, n.size, n.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(photoQuality)); err != nil {
		return nil, "", domain.NewInternalError("failed to encode profile photo", fmt.Errorf("encode jpeg: %w", err))
	}
	return buf.Bytes(), photoContentType, nil
}
