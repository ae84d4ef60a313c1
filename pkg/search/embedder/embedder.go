package embedder

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client is an OpenAI-compatible /v1/embeddings client.
type Client struct {
	endpoint, key, model string
	httpc                *http.Client
}

func New(endpoint, key, model string) *Client {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		model:    model,
		httpc:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) Name() string { return "openai:" + c.model }

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any{"model": c.model, "input": texts})
	if err != nil {
		return nil, err
	}
	url := c.endpoint + "/v1/embeddings"
	if strings.HasSuffix(c.endpoint, "/v1") {
		url = c.endpoint + "/embeddings"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("embeddings: status %d: %s", resp.StatusCode, msg)
	}
	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) != len(texts) {
		return nil, errors.New("embeddings: result count mismatch")
	}
	res := make([][]float32, len(texts))
	for i, d := range out.Data {
		idx := d.Index
		if idx < 0 || idx >= len(res) {
			idx = i
		}
		res[idx] = d.Embedding
	}
	return res, nil
}

func FloatsToBytes(v []float32) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func BytesToFloats(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	_ = binary.Read(bytes.NewReader(b[:n*4]), binary.LittleEndian, &out)
	return out
}
