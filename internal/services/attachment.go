package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	attachmentPlaceholder = "[Attachment]"
	voicePlaceholder      = "[Voice Message]"

	MaxAttachmentSizeBytes  = 10 * 1024 * 1024
	attachmentUploadTimeout = 30 * time.Second
)

// AttachmentUpload carries an attachment through a send call. The blob is
// uploaded before the message row is inserted; an upload failure aborts the
// whole send.
type AttachmentUpload struct {
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// placeholderFor picks the content shown in list views when a message has
// an attachment but no text.
func placeholderFor(attachment *AttachmentUpload) string {
	if attachment != nil && strings.HasPrefix(attachment.ContentType, "audio/") {
		return voicePlaceholder
	}
	return attachmentPlaceholder
}

// uploadAttachment pushes the blob to storage under a bounded deadline and
// returns its public URL. Every send path goes through here so no upload
// can hang a request indefinitely.
func uploadAttachment(ctx context.Context, storage StorageService, attachment *AttachmentUpload) (string, error) {
	if storage == nil {
		return "", ErrInvalidInput
	}
	uploadCtx, cancel := context.WithTimeout(ctx, attachmentUploadTimeout)
	defer cancel()
	return storage.UploadFile(uploadCtx, attachment.File, uniqueObjectKey(attachment.Filename), attachment.ContentType)
}

// uniqueObjectKey builds the storage key for an attachment:
// {unix-millis}-{sanitized original filename}. The timestamp prefix keeps
// same-named uploads from colliding.
func uniqueObjectKey(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)
}
