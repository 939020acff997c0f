package msg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectAttachmentType(t *testing.T) {
	pdf := []byte("%PDF-1.7 rest")
	png := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00}
	jpg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}

	mime, ext := DetectAttachmentType(pdf, "")
	require.Equal(t, "application/pdf", mime)
	require.Equal(t, "pdf", ext)

	mime, ext = DetectAttachmentType(png, "")
	require.Equal(t, "image/png", mime)
	require.Equal(t, "png", ext)

	mime, ext = DetectAttachmentType(jpg, "")
	require.Equal(t, "image/jpeg", mime)
	require.Equal(t, "jpg", ext)

	// A pdf hint wins over the signature.
	mime, _ = DetectAttachmentType(png, "application/pdf")
	require.Equal(t, "application/pdf", mime)

	mime, ext = DetectAttachmentType([]byte("plain text"), "")
	require.Equal(t, "application/octet-stream", mime)
	require.Equal(t, "bin", ext)
}

func TestAttachmentValidate(t *testing.T) {
	ok := Attachment{Data: []byte("%PDF-1.4")}
	require.NoError(t, ok.Validate())

	unsupported := Attachment{Data: []byte("hello world")}
	require.ErrorIs(t, unsupported.Validate(), ErrAttachmentType)

	big := Attachment{Data: make([]byte, MaxAttachmentBytes+1)}
	require.ErrorIs(t, big.Validate(), ErrAttachmentTooLarge)
}
