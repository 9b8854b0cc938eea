package domain

import "time"

// FileType classifies a media file attached to a listing. Only images are
// accepted today; the column stays a free string so new kinds can be added
// without a migration.
type FileType string

const (
	FileTypeImage FileType = "image"
)

// MediaFile is a stored media object associated with exactly one listing.
// Rows are removed together with their listing.
type MediaFile struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	FileType  FileType  `json:"file_type"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxUploadSize bounds a single multipart upload.
const MaxUploadSize = 10 << 20 // 10 MiB

// AllowedImageTypes lists the content types accepted for image uploads.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}
