package output

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jcc-ne/mcp-skill-server/internal/logging"
	"github.com/jcc-ne/mcp-skill-server/internal/skill"
)

// UploadHandler posts output files to an HTTP endpoint and returns the URLs
// the endpoint responds with. Files already uploaded (same path and content
// hash) are served from the cache instead of re-uploaded.
type UploadHandler struct {
	endpoint string
	cache    *UploadCache
	client   *http.Client
	logger   zerolog.Logger
}

// UploadOption configures an UploadHandler.
type UploadOption func(*UploadHandler)

// WithHTTPClient overrides the HTTP client used for uploads.
func WithHTTPClient(client *http.Client) UploadOption {
	return func(h *UploadHandler) { h.client = client }
}

// NewUploadHandler creates an UploadHandler. The cache must already be
// loaded by the caller.
func NewUploadHandler(endpoint string, cache *UploadCache, opts ...UploadOption) *UploadHandler {
	h := &UploadHandler{
		endpoint: endpoint,
		cache:    cache,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logging.Component("upload"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Process implements Handler. Upload failures do not drop the file: it is
// returned without a URL and the error recorded in its metadata.
func (h *UploadHandler) Process(ctx context.Context, filePaths []string, skillName, _ string) []skill.ProcessedOutput {
	results := make([]skill.ProcessedOutput, 0, len(filePaths))

	for _, path := range filePaths {
		name := filepath.Base(path)

		hash, err := hashFile(path)
		if err != nil {
			h.logger.Error().Err(err).Str("file", name).Msg("hash failed")
			results = append(results, skill.ProcessedOutput{
				Filename:  name,
				LocalPath: path,
				Metadata:  map[string]any{"error": err.Error()},
			})
			continue
		}

		cacheKey := path + ":" + hash
		if url, ok := h.cache.Get(cacheKey); ok {
			h.logger.Info().Str("file", name).Str("url", url).Msg("cache hit")
			results = append(results, skill.ProcessedOutput{
				Filename:  name,
				LocalPath: path,
				URL:       url,
				Metadata:  map[string]any{"cached": true},
			})
			continue
		}

		url, err := h.upload(ctx, path, skillName)
		if err != nil {
			h.logger.Error().Err(err).Str("file", name).Msg("upload failed")
			results = append(results, skill.ProcessedOutput{
				Filename:  name,
				LocalPath: path,
				Metadata:  map[string]any{"error": err.Error()},
			})
			continue
		}

		if err := h.cache.Put(cacheKey, url); err != nil {
			h.logger.Warn().Err(err).Msg("failed to persist upload cache")
		}
		h.logger.Info().Str("file", name).Str("url", url).Msg("uploaded")
		results = append(results, skill.ProcessedOutput{
			Filename:  name,
			LocalPath: path,
			URL:       url,
		})
	}

	return results
}

// upload posts a single file as multipart form data, retrying transient
// failures with exponential backoff.
func (h *UploadHandler) upload(ctx context.Context, path, skillName string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read output file: %w", err)
	}

	operation := func() (string, error) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", skillName+"_"+filepath.Base(path))
		if err != nil {
			return "", backoff.Permanent(err)
		}
		if _, err := part.Write(data); err != nil {
			return "", backoff.Permanent(err)
		}
		if err := writer.Close(); err != nil {
			return "", backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &body)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := h.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", err
		}
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("upload endpoint returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return "", backoff.Permanent(fmt.Errorf("upload endpoint returned %d", resp.StatusCode))
		}

		url := string(bytes.TrimSpace(respBody))
		if url == "" {
			url = h.endpoint + "/" + filepath.Base(path)
		}
		return url, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.RetryWithData(operation, policy)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
