package imagestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const (
	DefaultFolder  = "chat_images"
	UserFolderRoot = "users"
)

var (
	ErrImageRequired    = errors.New("Image data is required")
	ErrFileNameRequired = errors.New("File name is required")
	ErrInvalidFormat    = errors.New("Invalid image format")
	ErrFileIDRequired   = errors.New("File ID is required")
	ErrTooLarge         = errors.New("Image is too large")
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

type Client interface {
	PutObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (info minio.UploadInfo, err error)
	RemoveObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		opts minio.RemoveObjectOptions,
	) error
}

// UploadRequest carries a data URL ("data:image/png;base64,....") and where to store it.
type UploadRequest struct {
	Image    string `json:"image"`
	FileName string `json:"fileName"`
	Folder   string `json:"folder"`
}

type UploadResult struct {
	FileID      string `json:"fileId"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	FilePath    string `json:"filePath"`
	ContentType string `json:"contentType"`
}

// Store hosts chat images in an S3-compatible bucket.
type Store struct {
	mc        Client
	bucket    string
	publicURL string
	maxBytes  int64
}

func New(mc Client, bucket string, publicURL string, maxBytes int64) *Store {
	return &Store{
		mc:        mc,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
	}
}

// Upload decodes the data URL and stores it under folder/fileName.
func (s *Store) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	const op = "imagestore.Upload"

	if req.Image == "" {
		return UploadResult{}, ErrImageRequired
	}
	if req.FileName == "" {
		return UploadResult{}, ErrFileNameRequired
	}

	data, contentType, err := decodeDataURL(req.Image)
	if err != nil {
		return UploadResult{}, err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return UploadResult{}, ErrTooLarge
	}

	folder := strings.Trim(req.Folder, "/")
	if folder == "" {
		folder = DefaultFolder
	}
	key := path.Join(folder, path.Base(req.FileName))

	info, err := s.mc.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return UploadResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return UploadResult{
		FileID:      key,
		URL:         s.URL(key),
		Name:        path.Base(key),
		Size:        info.Size,
		FilePath:    "/" + key,
		ContentType: contentType,
	}, nil
}

// Delete removes a previously uploaded image.
func (s *Store) Delete(ctx context.Context, fileID string) error {
	const op = "imagestore.Delete"

	if fileID == "" {
		return ErrFileIDRequired
	}
	if err := s.mc.RemoveObject(ctx, s.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// URL is the public address of a stored file.
func (s *Store) URL(fileID string) string {
	return s.publicURL + "/" + fileID
}

// UniqueFileName prefixes a sanitized name with a random id.
func UniqueFileName(name string) string {
	return uuid.NewString() + "_" + unsafeNameChars.ReplaceAllString(name, "_")
}

// ChatFolder is where images sent in a chat are kept.
func ChatFolder(chatID string) string {
	return DefaultFolder + "/" + chatID
}

// UserFolder is where a user's own images, such as the avatar, are kept.
func UserFolder(userID string) string {
	return UserFolderRoot + "/" + userID
}

// Owner reports whose folder holds fileID: a chat for chat_images/<chatID>/..., a user for users/<userID>/....
// ok is false for files outside those folders and for ids that are not clean paths.
func Owner(fileID string) (chatID, userID string, ok bool) {
	if fileID == "" || path.Clean(fileID) != fileID || strings.HasPrefix(fileID, "/") {
		return "", "", false
	}
	parts := strings.SplitN(fileID, "/", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", false
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return "", "", false
	}

	switch parts[0] {
	case DefaultFolder:
		return id.String(), "", true
	case UserFolderRoot:
		return "", id.String(), true
	}
	return "", "", false
}

func decodeDataURL(image string) ([]byte, string, error) {
	parts := strings.Split(image, ",")
	if len(parts) != 2 {
		return nil, "", ErrInvalidFormat
	}

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", ErrInvalidFormat
	}
	if len(data) == 0 {
		return nil, "", ErrImageRequired
	}

	contentType := ""
	if header, ok := strings.CutPrefix(parts[0], "data:"); ok {
		contentType, _, _ = strings.Cut(header, ";")
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
