package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

var ErrUnreadableSource = errors.New("local source cannot be read by this process")

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadVideo streams a local file to the storage service and returns its
// durable remote URL.
func (c *Client) UploadVideo(ctx context.Context, cred models.Credentials, localURI string) (string, error) {
	if c.endpoints.Storage == "" {
		return "", ErrNotConfigured
	}
	path, err := localPath(localURI)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Storage+"/upload", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var resp uploadResponse
	if err := c.do(req, cred, &resp); err != nil {
		pr.CloseWithError(err)
		return "", err
	}
	if !models.IsRemoteSource(resp.URL) {
		return "", fmt.Errorf("storage returned %q: %w", resp.URL, models.ErrUnresolvedSource)
	}
	return resp.URL, nil
}

// localPath resolves file:// URIs and absolute paths. Device-library URIs
// (content://, ph://) only make sense on the device that produced them.
func localPath(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "/"):
		return uri, nil
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("parse %q: %w", uri, err)
		}
		if u.Path == "" {
			return "", fmt.Errorf("%w: %q", ErrUnreadableSource, uri)
		}
		return u.Path, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnreadableSource, uri)
	}
}
