// Package samhttp implements the segmentation engine client against a
// SAM-family HTTP server. Single-image calls use one JSON round trip;
// sequence calls stream one NDJSON object per frame.
package samhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/sam-annotator/pkg/client"
	"github.com/menta2k/sam-annotator/pkg/types"
)

// Config holds model parameters sent with every engine call.
type Config struct {
	Model      string
	Confidence float64
	ImageSize  int
}

// Client talks to a SAM segmentation server over HTTP.
type Client struct {
	baseURL    string
	config     Config
	httpClient *http.Client
	// No overall timeout: sequence responses stream for the whole batch
	// and are bounded by the request context instead.
	streamClient *http.Client
}

type segmentRequest struct {
	Model      string          `json:"model"`
	Confidence float64         `json:"confidence"`
	ImageSize  int             `json:"image_size"`
	ImagePath  string          `json:"image_path,omitempty"`
	FramePaths []string        `json:"frame_paths,omitempty"`
	Points     [][]types.Point `json:"points"`
	Labels     [][]int         `json:"labels"`
}

type segmentResponse struct {
	ImagePath string             `json:"image_path"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Masks     []types.MaskRecord `json:"masks"`
	Annotated string             `json:"annotated_image,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// NewClient creates a client with default model parameters.
func NewClient(serverURL string) (*Client, error) {
	return NewClientWithConfig(serverURL, Config{
		Model:      "sam2.1_l.pt",
		Confidence: 0.88,
		ImageSize:  1024,
	})
}

// NewClientWithConfig creates a client with custom model parameters.
func NewClientWithConfig(serverURL string, config Config) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8000"
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		config:  config,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		streamClient: &http.Client{},
	}, nil
}

// Segment runs single-image segmentation with per-object point prompts.
func (c *Client) Segment(ctx context.Context, imagePath string, points [][]types.Point, labels [][]int) (*types.SegmentResult, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	req := segmentRequest{
		Model:      c.config.Model,
		Confidence: c.config.Confidence,
		ImageSize:  c.config.ImageSize,
		ImagePath:  imagePath,
		Points:     points,
		Labels:     labels,
	}

	body, err := c.sendRequest(ctx, c.httpClient, "/v1/segment", req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", client.ErrEngineUnavailable, err)
	}

	var resp segmentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", client.ErrEngineUnavailable, err)
	}
	return resp.toResult()
}

// SegmentSequence runs sequence-mode segmentation over every frame of seq
// with one balanced point/label configuration. The returned stream decodes
// results lazily from the response body.
func (c *Client) SegmentSequence(ctx context.Context, seq client.Sequence, points [][]types.Point, labels [][]int) (client.ResultStream, error) {
	req := segmentRequest{
		Model:      c.config.Model,
		Confidence: c.config.Confidence,
		ImageSize:  c.config.ImageSize,
		FramePaths: seq.Paths(),
		Points:     points,
		Labels:     labels,
	}

	body, err := c.sendRequest(ctx, c.streamClient, "/v1/segment/sequence", req)
	if err != nil {
		return nil, err
	}

	return &resultStream{
		body:    body,
		decoder: json.NewDecoder(body),
	}, nil
}

func (c *Client) sendRequest(ctx context.Context, hc *http.Client, endpoint string, payload interface{}) (io.ReadCloser, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrEngineUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: server returned status %d: %s",
			client.ErrEngineUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp.Body, nil
}

func (r *segmentResponse) toResult() (*types.SegmentResult, error) {
	if r.Error != "" {
		return nil, fmt.Errorf("%w: %s", client.ErrEngineUnavailable, r.Error)
	}

	result := &types.SegmentResult{
		ImagePath: r.ImagePath,
		Width:     r.Width,
		Height:    r.Height,
		Masks:     r.Masks,
	}
	if r.Annotated != "" {
		data, err := base64.StdEncoding.DecodeString(r.Annotated)
		if err != nil {
			return nil, fmt.Errorf("failed to decode annotated image: %v", err)
		}
		result.Annotated = data
	}
	return result, nil
}

// resultStream decodes NDJSON frame results one at a time.
type resultStream struct {
	body    io.ReadCloser
	decoder *json.Decoder
}

// Next returns the next frame result, or io.EOF when the stream is
// exhausted. An in-band error object fails only the frame it stands for;
// the stream stays consumable. A decode failure ends the stream.
func (s *resultStream) Next() (*types.SegmentResult, error) {
	var resp segmentResponse
	if err := s.decoder.Decode(&resp); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: stream decode failed: %v", client.ErrEngineUnavailable, err)
	}
	if resp.Error != "" {
		return nil, &client.FrameError{ImagePath: resp.ImagePath, Message: resp.Error}
	}
	return resp.toResult()
}

func (s *resultStream) Close() error {
	return s.body.Close()
}
