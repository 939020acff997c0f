package msg

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Attachment limits. Oversize or unsupported files are rejected before
// compose; no network call is made for invalid attachments.
const MaxAttachmentBytes = 10 << 20

var (
	ErrAttachmentTooLarge = errors.New("attachment too large (max 10MB)")
	ErrAttachmentType     = errors.New("attachment type not allowed (pdf/png/jpeg only)")
)

// Attachment is a file staged for compose.
type Attachment struct {
	Name     string
	Data     []byte
	MimeHint string
}

// Validate enforces the size and type limits.
func (a *Attachment) Validate() error {
	if len(a.Data) > MaxAttachmentBytes {
		return ErrAttachmentTooLarge
	}
	mime, _ := DetectAttachmentType(a.Data, a.MimeHint)
	switch mime {
	case "application/pdf", "image/png", "image/jpeg":
		return nil
	}
	return ErrAttachmentType
}

// Mime returns the sniffed content type.
func (a *Attachment) Mime() string {
	mime, _ := DetectAttachmentType(a.Data, a.MimeHint)
	return mime
}

// Ext returns the file extension for the sniffed type.
func (a *Attachment) Ext() string {
	_, ext := DetectAttachmentType(a.Data, a.MimeHint)
	return ext
}

// DetectAttachmentType sniffs the payload's magic bytes, letting a pdf mime
// hint win over the signature. Unknown payloads fall back to octet-stream.
func DetectAttachmentType(data []byte, mimeHint string) (mime, ext string) {
	head := data
	if len(head) > 8 {
		head = head[:8]
	}
	sig := hex.EncodeToString(head)

	switch {
	case strings.Contains(strings.ToLower(mimeHint), "pdf"):
		return "application/pdf", "pdf"
	case strings.HasPrefix(sig, "25504446"): // %PDF
		return "application/pdf", "pdf"
	case strings.HasPrefix(sig, "89504e47"):
		return "image/png", "png"
	case strings.HasPrefix(sig, "ffd8"):
		return "image/jpeg", "jpg"
	}
	return "application/octet-stream", "bin"
}
