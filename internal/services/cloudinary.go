package services

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MediaUploader stores diary attachments and returns their public URL
type MediaUploader interface {
	Upload(ctx context.Context, data io.Reader, folder, publicID string) (string, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{
		cld: cld,
	}, nil
}

// Upload sends data to Cloudinary. publicID may be empty to let Cloudinary pick one.
func (s *CloudinaryService) Upload(ctx context.Context, data io.Reader, folder, publicID string) (string, error) {
	fileBytes, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto", // images as image, audio as video
	}
	if publicID != "" {
		overwrite := true
		params.Overwrite = &overwrite
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}
