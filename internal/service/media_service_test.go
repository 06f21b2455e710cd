package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quizdeck/quizdeck-backend/internal/config"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func uploadHeader(contentType string, size int64) *multipart.FileHeader {
	h := &multipart.FileHeader{
		Filename: "picture",
		Size:     size,
		Header:   textproto.MIMEHeader{},
	}
	h.Header.Set("Content-Type", contentType)
	return h
}

func TestSaveUploadRejectsUnsupportedType(t *testing.T) {
	svc := NewMediaService(&config.Config{UploadDir: t.TempDir(), MaxUploadBytes: 1 << 20})

	_, err := svc.SaveUpload(memFile{bytes.NewReader(nil)}, uploadHeader("application/pdf", 10))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
}

func TestSaveUploadRejectsOversizedFile(t *testing.T) {
	svc := NewMediaService(&config.Config{UploadDir: t.TempDir(), MaxUploadBytes: 100})

	_, err := svc.SaveUpload(memFile{bytes.NewReader(nil)}, uploadHeader("image/png", 101))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestSaveUploadWritesFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(&config.Config{UploadDir: dir, MaxUploadBytes: 1 << 20})

	content := []byte("fake png bytes")
	url, err := svc.SaveUpload(memFile{bytes.NewReader(content)}, uploadHeader("image/png", int64(len(content))))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want /uploads/<uuid>.png", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("saved file content differs from upload")
	}
}
