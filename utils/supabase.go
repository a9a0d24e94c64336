package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStorage stores public course assets in one Supabase bucket.
type SupabaseStorage struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

func NewSupabaseStorage(supabaseURL, key, bucket string) *SupabaseStorage {
	base := strings.TrimRight(supabaseURL, "/")
	return &SupabaseStorage{
		client:  storage.NewClient(base+"/storage/v1", key, nil),
		baseURL: base,
		bucket:  bucket,
	}
}

// Upload writes r to objectPath and returns the public URL of the object.
func (s *SupabaseStorage) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	options := storage.FileOptions{ContentType: &contentType}
	if _, err := s.client.UploadFile(s.bucket, objectPath, &buf, options); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

func (s *SupabaseStorage) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

// Delete removes the object behind a public URL of this bucket. Empty URLs
// are ignored.
func (s *SupabaseStorage) Delete(_ context.Context, publicURL string) error {
	if publicURL == "" {
		return nil
	}
	object, err := ObjectPathFromURL(publicURL, s.bucket)
	if err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{object}); err != nil {
		return fmt.Errorf("remove %s: %w", object, err)
	}
	return nil
}

// ObjectPathFromURL extracts the object path inside bucket from a Supabase
// public or authenticated object URL.
func ObjectPathFromURL(publicURL, bucket string) (string, error) {
	const marker = "/storage/v1/object/"
	idx := strings.Index(publicURL, marker)
	if idx == -1 {
		return "", fmt.Errorf("not a storage object url: %s", publicURL)
	}
	rest := strings.TrimPrefix(publicURL[idx+len(marker):], "public/")

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("cannot parse bucket and object from url: %s", publicURL)
	}
	if parts[0] != bucket {
		return "", fmt.Errorf("object %s is not in bucket %s", publicURL, bucket)
	}
	object := parts[1]
	if q := strings.Index(object, "?"); q != -1 {
		object = object[:q]
	}
	if u, err := url.PathUnescape(object); err == nil {
		object = u
	}
	return object, nil
}
