package model

import "errors"

const (
	MaxAvatarSizeBytes     = 5 * 1024 * 1024  // 5MB
	MaxCoverImageSizeBytes = 10 * 1024 * 1024 // 10MB
	ImageExt               = ".jpg"
	ImageCacheControl      = "public, max-age=31536000" // 1 year
	ImageJPEGQuality       = 85
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// ImageKind selects the bucket folder, target size and limits of an upload.
type ImageKind struct {
	Folder  string
	Width   int
	Height  int
	MaxSize int64
}

var (
	AvatarImage = ImageKind{Folder: "avatars", Width: 200, Height: 200, MaxSize: MaxAvatarSizeBytes}
	CoverImage  = ImageKind{Folder: "covers", Width: 1500, Height: 500, MaxSize: MaxCoverImageSizeBytes}
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// UploadResult represents the uploaded object location
// URL is the public-facing URL, Key is the object key inside the bucket.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
