package common

import (
	"path/filepath"
	"strings"
)

// MediaFileType classifies a message attachment
type MediaFileType string

const (
	MediaFileTypeImage MediaFileType = "image"
	MediaFileTypeVideo MediaFileType = "video"
	MediaFileTypeAudio MediaFileType = "audio"
	MediaFileTypeFile  MediaFileType = "file"
)

// String returns the string representation
func (mft MediaFileType) String() string {
	return string(mft)
}

// IsValid checks if the media file type is valid
func (mft MediaFileType) IsValid() bool {
	switch mft {
	case MediaFileTypeImage, MediaFileTypeVideo, MediaFileTypeAudio, MediaFileTypeFile:
		return true
	}
	return false
}

func DetectFileType(mimeType string) MediaFileType {
	lowerMimeType := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(lowerMimeType, "image/"):
		return MediaFileTypeImage
	case strings.HasPrefix(lowerMimeType, "video/"):
		return MediaFileTypeVideo
	case strings.HasPrefix(lowerMimeType, "audio/"):
		return MediaFileTypeAudio
	}
	return MediaFileTypeFile
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// IsImageName reports whether an attachment should be rendered inline as an image.
func IsImageName(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ContentTypeForName guesses a Content-Type from the file extension.
func ContentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
