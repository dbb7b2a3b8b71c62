package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxErrorBody caps how much of a failed response body ends up in an error message.
const maxErrorBody = 512

// HTTPClient calls the recognition service over HTTP.
type HTTPClient struct {
	endpoint *url.URL
	health   *url.URL
	client   *http.Client
}

// NewHTTPClient creates a client posting frames to endpoint (e.g. http://localhost:5001/predict).
// The health probe is sent to /health on the same host. A nil client means http.DefaultClient.
func NewHTTPClient(endpoint string, client *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url: %q is not absolute", endpoint)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPClient{
		endpoint: u,
		health:   u.ResolveReference(&url.URL{Path: "/health"}),
		client:   client,
	}, nil
}

type wireRequest struct {
	Image      string `json:"image"`
	NumPlayers int    `json:"num_players"`
}

type wireDetection struct {
	Card       string    `json:"card"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

type wireHand struct {
	PlayerID int             `json:"player_id"`
	Cards    []wireDetection `json:"cards"`
}

type wireResponse struct {
	Success    bool            `json:"success"`
	Detections []wireDetection `json:"detections"`
	Hands      []wireHand      `json:"hands"`
	Error      string          `json:"error"`
}

// Recognize posts the frame and decodes the detections.
func (c *HTTPClient) Recognize(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(wireRequest{Image: req.Image, NumPlayers: req.NumPlayers})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrTransport, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", ErrTransport, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		resp, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: server response status code: %d, body: %s", ErrTransport, response.StatusCode, resp)
	}

	var resp wireResponse
	if err := json.NewDecoder(response.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode response body: %w", ErrTransport, err)
	}

	if !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrBackendRejected, resp.Error)
		}
		return nil, ErrBackendRejected
	}

	return resp.toResponse()
}

// Health probes GET /health on the service host.
func (c *HTTPClient) Health(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.health.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: send request: %w", ErrTransport, err)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status code: %d", ErrTransport, response.StatusCode)
	}
	return nil
}

func (r *wireResponse) toResponse() (*Response, error) {
	out := &Response{
		Detections: make([]Detection, 0, len(r.Detections)),
	}

	for _, d := range r.Detections {
		det, err := d.toDetection()
		if err != nil {
			return nil, err
		}
		out.Detections = append(out.Detections, det)
	}

	if r.Hands != nil {
		out.Hands = make([]HandGroup, 0, len(r.Hands))
		for _, h := range r.Hands {
			group := HandGroup{PlayerID: h.PlayerID, Cards: make([]Detection, 0, len(h.Cards))}
			for _, d := range h.Cards {
				det, err := d.toDetection()
				if err != nil {
					return nil, err
				}
				group.Cards = append(group.Cards, det)
			}
			out.Hands = append(out.Hands, group)
		}
	}

	return out, nil
}

func (d wireDetection) toDetection() (Detection, error) {
	if d.Card == "" {
		return Detection{}, fmt.Errorf("%w: detection without card label", ErrTransport)
	}
	if len(d.BBox) != 4 {
		return Detection{}, fmt.Errorf("%w: bbox for %s has %d coordinates, want 4", ErrTransport, d.Card, len(d.BBox))
	}
	return Detection{
		Card:       d.Card,
		Confidence: d.Confidence,
		BBox:       BBox{d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]},
	}, nil
}
