package domain

import (
	"context"
	"fmt"
	"io"
)

// PhotoStorage writes profile photos to object storage and returns their public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// ImageNormalizer turns an uploaded image into the stored avatar format.
type ImageNormalizer interface {
	Normalize(r io.Reader) (body []byte, contentType string, err error)
}

// ProfilePhotoKey is overwritten on every upload so each user has one photo object.
func ProfilePhotoKey(userID string) string {
	return fmt.Sprintf("profile_photos/%s", userID)
}
