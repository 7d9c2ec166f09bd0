package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/d60-Lab/creation-studio/config"
)

// CloudinaryHost stores images on Cloudinary.
type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryHost(cfg config.CloudinaryConfig) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryHost{cld: cld}, nil
}

func (h *CloudinaryHost) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*HostedImage, error) {
	res, err := h.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         opts.Folder,
		Transformation: opts.Transformation,
		ResourceType:   "image",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, errors.New("cloudinary upload: missing secure url")
	}
	return &HostedImage{PublicID: res.PublicID, SecureURL: res.SecureURL}, nil
}

// TransformURL builds a delivery URL for publicID with the transformation applied.
func (h *CloudinaryHost) TransformURL(publicID, transformation string) (string, error) {
	img, err := h.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("cloudinary asset: %w", err)
	}
	img.Transformation = transformation
	return img.String()
}
