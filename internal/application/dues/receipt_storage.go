package dues

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pharmassoc/backend/internal/domain/dues"
)

// ReceiptUpload describes an uploaded receipt file
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// StoredReceipt is the durable location of an uploaded receipt
type StoredReceipt struct {
	URL     string
	Key     string
	Storage dues.ReceiptStorageKind
}

// ReceiptStorage abstracts the object store that holds receipt files.
// Upload returns a durable URL and a key usable for later deletion.
type ReceiptStorage interface {
	Upload(ctx context.Context, key, contentType string, content io.Reader) (string, error)

	// Delete removes a stored receipt. Best-effort callers may log and ignore
	// the error.
	Delete(ctx context.Context, key string) error

	// PresignDownload returns a time-limited download URL for a stored receipt
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Kind identifies this backend on stored payments
	Kind() dues.ReceiptStorageKind
}

// allowedReceiptTypes maps accepted receipt media types to file extensions
var allowedReceiptTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// IsAllowedReceiptType reports whether the declared media type may be uploaded
func IsAllowedReceiptType(contentType string) bool {
	_, ok := allowedReceiptTypes[normalizeContentType(contentType)]
	return ok
}

// ReceiptExtension returns the canonical file extension for a media type
func ReceiptExtension(contentType string) string {
	return allowedReceiptTypes[normalizeContentType(contentType)]
}

func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
