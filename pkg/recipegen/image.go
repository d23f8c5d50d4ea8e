package recipegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// maxImageBytes caps how much of a referenced image is buffered before
// re-encoding. Vision models reject larger payloads anyway.
const maxImageBytes = 20 << 20

// FetchImageDataURI downloads the referenced image and re-encodes it as a
// base64 data URI suitable for a vision model's image_url part.
func FetchImageDataURI(ctx context.Context, client *http.Client, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
