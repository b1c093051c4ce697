// Package driver talks to the external image build service. The driver
// owns the image namespace; this client only requests builds, deletions
// and stops, and classifies the driver's answers.
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"pratai-api/internal/core/functions"
	"pratai-api/internal/httpx"
)

type Client struct {
	endpoint string
	http     *httpx.Client
	lg       zerolog.Logger
}

var _ functions.ImageService = (*Client)(nil)

func New(endpoint string, httpClient *httpx.Client, lg zerolog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		lg:       lg.With().Str("adapter", "driver").Logger(),
	}
}

// Build posts a build request and returns the driver-assigned image id.
// The underlying client retries transient statuses; whatever status
// ultimately comes back that is not 2xx is a build failure.
func (c *Client) Build(ctx context.Context, req *functions.BuildRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal build request: %w", err)
	}

	resp, err := c.http.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		URL:    c.endpoint + "/images/build",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("driver returned status %d", resp.StatusCode)
	}

	var result struct {
		ImageID string `json:"image_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode build response: %w", err)
	}
	if result.ImageID == "" {
		return "", fmt.Errorf("driver returned no image_id")
	}
	c.lg.Info().Str("image_id", result.ImageID).Str("name", req.Name).Msg("image built")
	return result.ImageID, nil
}

// DeleteImage asks the driver to remove an image.
func (c *Client) DeleteImage(ctx context.Context, imageID string) error {
	resp, err := c.http.Do(ctx, &httpx.Request{
		Method: http.MethodDelete,
		URL:    fmt.Sprintf("%s/images/%s", c.endpoint, imageID),
	})
	if err != nil {
		return err
	}
	defer discard(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("driver returned status %d", resp.StatusCode)
	}
	return nil
}

// StopFunction asks the driver to stop a running function.
func (c *Client) StopFunction(ctx context.Context, functionID string) error {
	resp, err := c.http.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/functions/%s/stop", c.endpoint, functionID),
	})
	if err != nil {
		return err
	}
	defer discard(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("driver returned status %d", resp.StatusCode)
	}
	return nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
