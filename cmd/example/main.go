package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"stapler/internal/stapler"
)

// getenv returns the value of the environment variable named by key or
// fallback if the variable is not present.
func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// readError pulls the message out of an error envelope, falling back to the
// raw body.
func readError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return err.Error()
	}

	var envelope stapler.ErrorResponse
	if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
		return envelope.Error
	}
	return string(data)
}

// postJSON posts body to url and decodes a 200 response into out.
func postJSON(ctx context.Context, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %q: %s", resp.StatusCode, url, readError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %q: %w", url, err)
	}

	return nil
}

// IssueCredentials asks the service for one presigned upload per file name.
func IssueCredentials(ctx context.Context, baseURL string, fileNames []string) (*stapler.IssueUploadsResponse, error) {
	var uploads stapler.IssueUploadsResponse
	if err := postJSON(ctx, baseURL+"/upload", stapler.IssueUploadsRequest{FileNames: fileNames}, &uploads); err != nil {
		return nil, err
	}

	if len(uploads.Uploads) != len(fileNames) {
		return nil, fmt.Errorf("expected %d upload entries, got %d", len(fileNames), len(uploads.Uploads))
	}

	return &uploads, nil
}

// UploadFile performs the presigned POST for one local file: every issued
// form field first, then the file itself as the final "file" part.
func UploadFile(ctx context.Context, details stapler.PostDetails, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range details.Fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %q: %w", name, err)
		}
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish form body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, details.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to create storage request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("storage rejected the upload with status %d", resp.StatusCode)
	}

	slog.Info("Uploaded file", "path", path, "status", resp.StatusCode)
	return nil
}

// MergeFiles asks the service to merge the uploaded keys, in order.
func MergeFiles(ctx context.Context, baseURL string, keys []string) (*stapler.MergeResponse, error) {
	var merged stapler.MergeResponse
	if err := postJSON(ctx, baseURL+"/merge", stapler.MergeRequest{FileKeys: keys}, &merged); err != nil {
		return nil, err
	}

	slog.Info("Merged documents", "message", merged.Message)
	return &merged, nil
}

// DownloadFile fetches the merged document from its presigned URL.
func DownloadFile(ctx context.Context, url string, downloadPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download merged document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected download status %d", resp.StatusCode)
	}

	out, err := os.Create(downloadPath)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", downloadPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %q: %w", downloadPath, err)
	}

	slog.Info("Downloaded merged document", "path", downloadPath)
	return nil
}

func Run(ctx context.Context, baseURL string, paths []string) error {
	fileNames := make([]string, 0, len(paths))
	for _, p := range paths {
		fileNames = append(fileNames, filepath.Base(p))
	}

	// 1. Ask for one upload credential per file.
	uploads, err := IssueCredentials(ctx, baseURL, fileNames)
	if err != nil {
		return fmt.Errorf("failed to issue upload credentials: %w", err)
	}

	// 2. Upload every file straight to storage using its credential.
	keys := make([]string, 0, len(uploads.Uploads))
	for i, entry := range uploads.Uploads {
		if err := UploadFile(ctx, entry.PostDetails, paths[i]); err != nil {
			return fmt.Errorf("failed to upload %q: %w", paths[i], err)
		}
		keys = append(keys, entry.Key)
	}

	// 3. Merge the uploaded documents in command-line order.
	merged, err := MergeFiles(ctx, baseURL, keys)
	if err != nil {
		return fmt.Errorf("failed to merge documents: %w", err)
	}

	// 4. Download the result.
	downloadPath := filepath.Join(".", "merged.pdf")
	if err := DownloadFile(ctx, merged.DownloadURL, downloadPath); err != nil {
		return fmt.Errorf("failed to download merged document: %w", err)
	}

	return nil
}

func main() {
	baseURL := getenv("STAPLER_URL", "http://localhost:8080")

	paths := os.Args[1:]
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s file.pdf [file.pdf ...]\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	ctx := context.Background()

	if err := Run(ctx, baseURL, paths); err != nil {
		slog.Error("error running example", "err", err)
		os.Exit(1)
	}
}
