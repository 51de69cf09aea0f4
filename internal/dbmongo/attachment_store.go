package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gochat/internal/common"
)

// Attachment describes a stored file. ID is the GridFS ObjectID in hex.
type Attachment struct {
	ID          string               `json:"id"`
	Filename    string               `json:"filename"`
	ContentType string               `json:"content_type"`
	Size        int64                `json:"size"`
	FileType    common.MediaFileType `json:"file_type"`
	UploadedBy  uint64               `json:"uploaded_by"`
	UploadedAt  time.Time            `json:"uploaded_at"`
}

type AttachmentStore interface {
	Upload(ctx context.Context, filename, contentType string, uploaderID uint64, content io.Reader) (*Attachment, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, *Attachment, error)
	Delete(ctx context.Context, fileID string) error
}

type gridFSStore struct {
	bucket *gridfs.Bucket
}

func NewAttachmentStore(mongoClient *MongoClient) AttachmentStore {
	return &gridFSStore{bucket: mongoClient.GridFS}
}

func (s *gridFSStore) Upload(ctx context.Context, filename, contentType string, uploaderID uint64, content io.Reader) (*Attachment, error) {
	if contentType == "" {
		contentType = common.ContentTypeForName(filename)
	}
	fileType := common.DetectFileType(contentType)
	uploadedAt := time.Now().UTC()

	opts := options.GridFSUpload().SetMetadata(uploadMetadata(fileType, contentType, uploaderID, uploadedAt))
	stream, err := s.bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	size, err := io.Copy(stream, content)
	if err != nil {
		_ = stream.Abort()
		return nil, fmt.Errorf("file copy failed: %w", err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("upload finalize failed: %w", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("unexpected GridFS file id type")
	}

	return &Attachment{
		ID:          id.Hex(),
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		FileType:    fileType,
		UploadedBy:  uploaderID,
		UploadedAt:  uploadedAt,
	}, nil
}

// Download returns an open stream; the caller must close it.
func (s *gridFSStore) Download(ctx context.Context, fileID string) (io.ReadCloser, *Attachment, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid file ID %q: %w", fileID, common.ErrNotFound)
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, nil, fmt.Errorf("file %s: %w", fileID, common.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		if err := bson.Unmarshal(fileInfo.Metadata, &metadata); err != nil {
			metadata = nil
		}
	}

	return stream, attachmentFromMetadata(fileID, fileInfo.Name, fileInfo.Length, fileInfo.UploadDate, metadata), nil
}

func (s *gridFSStore) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("invalid file ID %q: %w", fileID, common.ErrNotFound)
	}
	if err := s.bucket.DeleteContext(ctx, objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("file %s: %w", fileID, common.ErrNotFound)
		}
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

func uploadMetadata(fileType common.MediaFileType, contentType string, uploaderID uint64, uploadedAt time.Time) bson.M {
	return bson.M{
		"file_type":   fileType.String(),
		"mime_type":   contentType,
		"uploaded_by": strconv.FormatUint(uploaderID, 10),
		"uploaded_at": uploadedAt,
	}
}

func attachmentFromMetadata(fileID, name string, size int64, uploadDate time.Time, metadata bson.M) *Attachment {
	contentType := getStringFromMap(metadata, "mime_type")
	if contentType == "" {
		contentType = common.ContentTypeForName(name)
	}
	fileType := common.MediaFileType(getStringFromMap(metadata, "file_type"))
	if !fileType.IsValid() {
		fileType = common.DetectFileType(contentType)
	}
	uploader, _ := strconv.ParseUint(getStringFromMap(metadata, "uploaded_by"), 10, 64)

	return &Attachment{
		ID:          fileID,
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		FileType:    fileType,
		UploadedBy:  uploader,
		UploadedAt:  uploadDate,
	}
}

func getStringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
