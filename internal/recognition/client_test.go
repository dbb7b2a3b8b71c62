package recognition

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid endpoint", url: "http://localhost:5001/predict"},
		{name: "relative url", url: "/predict", wantErr: true},
		{name: "garbage", url: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPClient(tt.url, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewHTTPClient(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestHTTPClient_Recognize(t *testing.T) {
	var got map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"detections": [{"card": "AS", "confidence": 0.91, "bbox": [10, 20, 110, 220], "timestamp": null}],
			"hands": [{"hand_id": 0, "player_id": 1, "position": [60, 120], "card_count": 1,
				"cards": [{"card": "AS", "confidence": 0.91, "bbox": [10, 20, 110, 220]}]}],
			"count": 1
		}`))
	}))
	defer ts.Close()

	client, err := NewHTTPClient(ts.URL+"/predict", ts.Client())
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}

	resp, err := client.Recognize(context.Background(), &Request{Image: "data:image/jpeg;base64,AAAA", NumPlayers: 3})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if got["image"] != "data:image/jpeg;base64,AAAA" {
		t.Errorf("image = %v, want data URI", got["image"])
	}
	if got["num_players"] != float64(3) {
		t.Errorf("num_players = %v, want 3", got["num_players"])
	}

	if len(resp.Detections) != 1 {
		t.Fatalf("len(Detections) = %d, want 1", len(resp.Detections))
	}
	want := Detection{Card: "AS", Confidence: 0.91, BBox: BBox{10, 20, 110, 220}}
	if resp.Detections[0] != want {
		t.Errorf("Detections[0] = %+v, want %+v", resp.Detections[0], want)
	}

	if len(resp.Hands) != 1 || resp.Hands[0].PlayerID != 1 || len(resp.Hands[0].Cards) != 1 {
		t.Fatalf("Hands = %+v, want one group for player 1", resp.Hands)
	}
}

func TestHTTPClient_RecognizeWithoutHands(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "detections": []}`))
	}))
	defer ts.Close()

	client, _ := NewHTTPClient(ts.URL+"/predict", ts.Client())
	resp, err := client.Recognize(context.Background(), &Request{NumPlayers: 2})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if resp.Hands != nil {
		t.Errorf("Hands = %v, want nil", resp.Hands)
	}
	if len(resp.Detections) != 0 {
		t.Errorf("len(Detections) = %d, want 0", len(resp.Detections))
	}
}

func TestHTTPClient_RecognizeFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "success false",
			status:  http.StatusOK,
			body:    `{"success": false}`,
			wantErr: ErrBackendRejected,
		},
		{
			name:    "success false with message",
			status:  http.StatusOK,
			body:    `{"success": false, "error": "no model"}`,
			wantErr: ErrBackendRejected,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"success": false, "error": "boom"}`,
			wantErr: ErrTransport,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"success": tru`,
			wantErr: ErrTransport,
		},
		{
			name:    "short bbox",
			status:  http.StatusOK,
			body:    `{"success": true, "detections": [{"card": "KH", "confidence": 0.5, "bbox": [1, 2, 3]}]}`,
			wantErr: ErrTransport,
		},
		{
			name:    "missing label",
			status:  http.StatusOK,
			body:    `{"success": true, "detections": [{"confidence": 0.5, "bbox": [1, 2, 3, 4]}]}`,
			wantErr: ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client, _ := NewHTTPClient(ts.URL+"/predict", ts.Client())
			_, err := client.Recognize(context.Background(), &Request{NumPlayers: 2})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Recognize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPClient_RecognizeUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client, _ := NewHTTPClient(url+"/predict", nil)
	_, err := client.Recognize(context.Background(), &Request{NumPlayers: 2})
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Recognize() error = %v, want ErrTransport", err)
	}
}

func TestHTTPClient_Health(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer ts.Close()

	client, _ := NewHTTPClient(ts.URL+"/predict", ts.Client())
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}

	broken, _ := NewHTTPClient(ts.URL+"/v1/predict", ts.Client())
	broken.health = broken.endpoint
	if err := broken.Health(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("Health() error = %v, want ErrTransport", err)
	}
}

func TestBBox_Size(t *testing.T) {
	b := BBox{100, 50, 250, 90}
	if b.Width() != 150 {
		t.Errorf("Width() = %v, want 150", b.Width())
	}
	if b.Height() != 40 {
		t.Errorf("Height() = %v, want 40", b.Height())
	}
}
