package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type uploader interface {
	UploadFile(bucketID string, relativePath string, data io.Reader, fileOptions ...storage.FileOptions) (storage.FileUploadResponse, error)
	RemoveFile(bucketID string, paths []string) ([]storage.FileUploadResponse, error)
}

// 支払いスクショ・チャット添付をsupabase storageに置く
// 返すのはbucket内のパス（中身は解釈しない）
type SupabaseStore struct {
	client uploader
	bucket string
}

func NewSupabaseStore(supabaseURL string, serviceRoleKey string, bucket string) *SupabaseStore {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)
	return &SupabaseStore{client: client, bucket: bucket}
}

func (s *SupabaseStore) Store(ctx context.Context, category string, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	objectPath := ObjectPath(category, filename)

	contentType := http.DetectContentType(data)
	upsert := false
	_, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return objectPath, nil
}

func (s *SupabaseStore) Remove(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// {category}/{uuid}{ext}。元のファイル名は拡張子だけ使う
func ObjectPath(category string, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s/%s%s", category, uuid.NewString(), ext)
}
