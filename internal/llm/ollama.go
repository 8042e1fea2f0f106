package llm

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Ollama calls a local Ollama server's /api/chat endpoint.
type Ollama struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllama creates a client for the Ollama server at baseURL.
func NewOllama(baseURL, model string, httpClient *http.Client) *Ollama {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Ollama{httpClient: httpClient, baseURL: baseURL, model: model}
}

// Name returns "ollama".
func (c *Ollama) Name() string {
	return "ollama"
}

type ollamaRequest struct {
	Options  map[string]any `json:"options,omitempty"`
	Model    string         `json:"model"`
	Format   string         `json:"format,omitempty"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
}

type ollamaChunk struct {
	Error   string `json:"error"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (c *Ollama) post(ctx context.Context, body ollamaRequest) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(c.baseURL, "/api/chat"), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed on /api/chat: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Message:    compactSingleLine(string(payload), 240),
		}
	}
	return resp, nil
}

// StreamCompletion streams message content from newline-delimited JSON chunks.
func (c *Ollama) StreamCompletion(ctx context.Context, system, user string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, ollamaRequest{
			Model:    c.model,
			Messages: messages(system, user),
			Stream:   true,
			Options:  map[string]any{"temperature": 0.2},
		})
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				yield("", &ProviderError{Provider: c.Name(), Message: "returned non-json chunk"})
				return
			}
			if chunk.Error != "" {
				yield("", &ProviderError{Provider: c.Name(), Message: chunk.Error})
				return
			}
			if chunk.Message.Content != "" {
				if !yield(chunk.Message.Content, nil) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("ollama stream interrupted: %w", err))
		}
	}
}

// StructuredCompletion asks for a JSON-formatted, non-streamed reply.
func (c *Ollama) StructuredCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := c.post(ctx, ollamaRequest{
		Model:    c.model,
		Messages: messages(system, user),
		Format:   "json",
		Options:  map[string]any{"temperature": 0.2},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	var chunk ollamaChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", &ProviderError{Provider: c.Name(), Message: "returned non-json payload"}
	}
	if chunk.Error != "" {
		return "", &ProviderError{Provider: c.Name(), Message: chunk.Error}
	}
	content := strings.TrimSpace(chunk.Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
