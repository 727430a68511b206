// Package media stores user images (posters, profile pictures, blog images)
// on an object store.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

type OSSHost struct {
	bucket   *oss.Bucket
	endpoint string
	name     string
	folder   string
}

func NewOSSHost(endpoint, keyID, secret, bucketName, folder string) (*OSSHost, error) {
	client, err := oss.New(endpoint, keyID, secret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket: %w", err)
	}
	return &OSSHost{bucket: bkt, endpoint: endpoint, name: bucketName, folder: strings.Trim(folder, "/")}, nil
}

// Upload stores r under folder/sub and returns its public URL.
func (h *OSSHost) Upload(ctx context.Context, sub, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	data, ct := Normalize(data)
	key := objectKey(h.folder, sub, filename)

	err = h.bucket.PutObject(key, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(ct),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return h.PublicURL(key), nil
}

func (h *OSSHost) Delete(ctx context.Context, url string) error {
	key, err := KeyFromURL(url)
	if err != nil {
		return err
	}
	return h.bucket.DeleteObject(key, oss.WithContext(ctx))
}

func (h *OSSHost) PublicURL(key string) string {
	end := strings.TrimPrefix(strings.TrimPrefix(h.endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", h.name, end, key)
}

func objectKey(folder, sub, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, sub, uuid.NewString()+ext)
}

// KeyFromURL strips scheme and host from a public object URL.
func KeyFromURL(url string) (string, error) {
	u := url
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 && i+1 < len(u) {
		return u[i+1:], nil
	}
	return "", fmt.Errorf("cannot extract key from url: %s", url)
}

// MemoryHost keeps uploads in memory. Used by tests and local runs without
// object storage credentials.
type MemoryHost struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewMemoryHost() *MemoryHost { return &MemoryHost{Objects: map[string][]byte{}} }

func (h *MemoryHost) Upload(_ context.Context, sub, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := objectKey("mem", sub, filename)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Objects[key] = data
	return "mem://host/" + key, nil
}

func (h *MemoryHost) Delete(_ context.Context, url string) error {
	key, err := KeyFromURL(url)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Objects[key]; !ok {
		return fmt.Errorf("no object %s", key)
	}
	delete(h.Objects, key)
	return nil
}

func (h *MemoryHost) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Objects)
}
