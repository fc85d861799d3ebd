// Package uploads wraps the image-hosting collaborator used for opportunity
// logos.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrNotConfigured signals absent image-host credentials.
var ErrNotConfigured = errors.New("image host is not configured")

// Uploader accepts a binary image and returns a durable URL.
type Uploader interface {
	UploadBytes(ctx context.Context, folder, filename string, b []byte) (string, error)
}

// CloudinaryUploader uploads through Cloudinary. Credentials come from the
// CLOUDINARY_URL environment variable.
type CloudinaryUploader struct {
	cld *cld.Cloudinary
}

func NewCloudinaryUploader() (*CloudinaryUploader, error) {
	if os.Getenv("CLOUDINARY_URL") == "" {
		return nil, ErrNotConfigured
	}
	client, err := cld.New()
	if err != nil {
		return nil, fmt.Errorf("cloudinary init failed: %w", err)
	}
	return &CloudinaryUploader{cld: client}, nil
}

func (u *CloudinaryUploader) UploadBytes(ctx context.Context, folder, filename string, b []byte) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(b), uploader.UploadParams{
		Folder:       folder,
		PublicID:     filename,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return res.SecureURL, nil
}
