package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		BaseURL:        url,
		APIKey:         "sk-test",
		ChatModel:      "chat-model",
		ImageModel:     "image-model",
		EmbeddingModel: "embedding-model",
		Timeout:        time.Second,
	})
}

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("want path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		var req openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "chat-model" || len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hi there \n"}}]}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL).Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("want trimmed reply, got %q", reply)
	}
}

func TestClient_CompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrEmptyResponse},
		{name: "provider error", status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited","type":"requests"}}`, wantMsg: "rate limited"},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantMsg: "chat completion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Complete(context.Background(), "hello")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("want error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestClient_Image(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("want path /images/generations, got %s", r.URL.Path)
		}
		var req openai.ImageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "image-model" || req.ResponseFormat != openai.CreateImageResponseFormatB64JSON || req.N != 1 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		})
	}))
	defer srv.Close()

	img, err := newTestClient(srv.URL).Image(context.Background(), "a lamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(img) != string(png) {
		t.Fatalf("unexpected image bytes %q", img)
	}
}

func TestClient_ImageEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Image(context.Background(), "a lamp"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("want ErrEmptyResponse, got %v", err)
	}
}

func TestClient_Embed(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []float32
		wantErr error
	}{
		{
			name: "returns first vector",
			body: `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}]}`,
			want: []float32{0.25, -0.5, 1},
		},
		{
			name:    "no data",
			body:    `{"object":"list","data":[]}`,
			wantErr: ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/embeddings" {
					t.Errorf("want path /embeddings, got %s", r.URL.Path)
				}
				var req struct {
					Input []string `json:"input"`
					Model string   `json:"model"`
				}
				json.NewDecoder(r.Body).Decode(&req)
				if req.Model != "embedding-model" || len(req.Input) != 1 || req.Input[0] != "Product Name: Lamp" {
					t.Errorf("unexpected request: %+v", req)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestClient(srv.URL).Embed(context.Background(), "Product Name: Lamp")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("want %v, got %v", tt.want, got)
				}
			}
		})
	}
}
