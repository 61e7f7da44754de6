package dbmongo

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chathub/internal/common"
)

// ImageStorage stores message image attachments in GridFS. Only the file
// id travels through the relational store (inside the message image URL).
type ImageStorage struct {
	gridFS *gridfs.Bucket
}

func NewImageStorage(mongoClient *MongoClient) *ImageStorage {
	return &ImageStorage{gridFS: mongoClient.GridFS}
}

type ImageFile struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Upload streams the image into GridFS after validating the filename and
// content type.
func (s *ImageStorage) Upload(ctx context.Context, filename, mimeType, uploaderID string, content io.Reader) (*ImageFile, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: filename cannot be empty", common.ErrInvalidInput)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: only image uploads are supported", common.ErrInvalidInput)
	}

	metadata := bson.M{
		"mime_type":   mimeType,
		"uploaded_by": uploaderID,
		"uploaded_at": time.Now().UTC(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := s.gridFS.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer stream.Close()

	size, err := io.Copy(stream, content)
	if err != nil {
		return nil, fmt.Errorf("file copy failed: %w", err)
	}

	return &ImageFile{
		ID:         stream.FileID.(primitive.ObjectID).Hex(),
		Filename:   filename,
		Size:       size,
		MimeType:   mimeType,
		UploadedBy: uploaderID,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// Download opens the stored file and returns its metadata alongside the
// content stream. The caller owns closing the stream.
func (s *ImageStorage) Download(ctx context.Context, fileID string) (*gridfs.DownloadStream, *ImageFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid file id", common.ErrInvalidInput)
	}

	stream, err := s.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: file %s", common.ErrNotFound, fileID)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		_ = bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	image := &ImageFile{
		ID:         fileID,
		Filename:   fileInfo.Name,
		Size:       fileInfo.Length,
		MimeType:   stringFromMeta(metadata, "mime_type"),
		UploadedBy: stringFromMeta(metadata, "uploaded_by"),
		UploadedAt: fileInfo.UploadDate,
	}
	return stream, image, nil
}

func stringFromMeta(metadata bson.M, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}
