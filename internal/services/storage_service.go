// internal/services/storage_service.go
package services

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/kofiasare/campusmart-backend/internal/config"
)

// StorageService uploads product images to S3. Orders later snapshot the
// resulting URL, so uploaded objects are treated as immutable.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

const (
	maxImageSize = 10 << 20 // 10 MB
	uploadFolder = "products"
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

func (s *StorageService) UploadProductImage(header *multipart.FileHeader) (*UploadResult, error) {
	if header.Size > maxImageSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", header.Size, maxImageSize)
	}

	mimeType := header.Header.Get("Content-Type")
	if !s.isAllowedType(mimeType) {
		return nil, fmt.Errorf("unsupported file type: %s", mimeType)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%d-%s%s",
		uploadFolder,
		time.Now().Unix(),
		uuid.New().String(),
		strings.ToLower(filepath.Ext(header.Filename)),
	)

	if s.s3Client == nil {
		// Local development: pretend the upload happened.
		return &UploadResult{
			URL:      fmt.Sprintf("/uploads/%s", key),
			Key:      key,
			Size:     header.Size,
			MimeType: mimeType,
		}, nil
	}

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(header.Size),
		ContentType:   aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.objectURL(key),
		Key:      key,
		Size:     header.Size,
		MimeType: mimeType,
	}, nil
}

func (s *StorageService) isAllowedType(mimeType string) bool {
	for _, allowed := range allowedImageTypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

func (s *StorageService) objectURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.AWS.CloudFrontURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
