package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBroadcastSendAbortsWhenUploadFails(t *testing.T) {
	storage := &recordingStorage{uploadErr: errors.New("bucket unavailable")}
	// nil repos: an aborted send must never reach the store
	svc := NewBroadcastService(nil, nil, storage, nil)

	_, err := svc.Send(context.Background(), "u-1", SendBroadcastInput{
		Attachment: &AttachmentUpload{
			File:        strings.NewReader("blob"),
			Filename:    "photo.png",
			ContentType: "image/png",
		},
	})
	if err == nil || !strings.Contains(err.Error(), "bucket unavailable") {
		t.Fatalf("expected the upload error, got %v", err)
	}
	if storage.uploadCalls != 1 {
		t.Fatalf("upload called %d times", storage.uploadCalls)
	}
	if !storage.hadDeadline {
		t.Fatal("broadcast upload carried no deadline")
	}
}

func TestBroadcastSendRequiresContentOrAttachment(t *testing.T) {
	svc := NewBroadcastService(nil, nil, nil, nil)

	if _, err := svc.Send(context.Background(), "u-1", SendBroadcastInput{Content: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
