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
	"github.com/rs/zerolog/log"
)

const (
	eventOutputTextDelta = "response.output_text.delta"
	eventResponseFailed  = "response.failed"
	eventError           = "error"

	sseDataPrefix = "data:"
	sseDone       = "[DONE]"

	maxEventBytes = 1024 * 1024
)

// OpenAI calls the OpenAI Responses API.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAI creates a client for the Responses API rooted at baseURL.
func NewOpenAI(baseURL, apiKey, model string, httpClient *http.Client) *OpenAI {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAI{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
	}
}

// Name returns "openai".
func (c *OpenAI) Name() string {
	return "openai"
}

type responsesRequest struct {
	Model  string        `json:"model"`
	Input  []chatMessage `json:"input"`
	Stream bool          `json:"stream,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type streamEvent struct {
	Response *struct {
		Error *apiError `json:"error"`
	} `json:"response"`
	Type    string `json:"type"`
	Delta   string `json:"delta"`
	Message string `json:"message"`
}

type responsesResponse struct {
	Error      *apiError `json:"error"`
	OutputText string    `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text returns the concatenated output_text parts of the response.
func (r *responsesResponse) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	var sb strings.Builder
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

func (c *OpenAI) post(ctx context.Context, body responsesRequest) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(c.baseURL, "/responses"), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed on /responses: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(payload),
		}
	}
	return resp, nil
}

// errorMessage prefers the API's error.message over the raw body.
func errorMessage(payload []byte) string {
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}
	return compactSingleLine(string(payload), 240)
}

// StreamCompletion streams output_text deltas from a server-sent event stream.
func (c *OpenAI) StreamCompletion(ctx context.Context, system, user string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, responsesRequest{Model: c.model, Input: messages(system, user), Stream: true})
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, sseDataPrefix) {
				// event:, id:, comments and blank separators carry nothing we need.
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix))
			if data == sseDone {
				return
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				log.Debug().Err(err).Msg("Skipping undecodable stream event")
				continue
			}

			switch event.Type {
			case eventOutputTextDelta:
				if event.Delta == "" {
					continue
				}
				if !yield(event.Delta, nil) {
					return
				}
			case eventResponseFailed:
				msg := "response failed"
				if event.Response != nil && event.Response.Error != nil && event.Response.Error.Message != "" {
					msg = event.Response.Error.Message
				}
				yield("", &ProviderError{Provider: c.Name(), Message: msg})
				return
			case eventError:
				yield("", &ProviderError{Provider: c.Name(), Message: event.Message})
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("openai stream interrupted: %w", err))
		}
	}
}

// StructuredCompletion sends a non-streamed request and returns the output text.
func (c *OpenAI) StructuredCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := c.post(ctx, responsesRequest{Model: c.model, Input: messages(system, user)})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}
	var parsed responsesResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", &ProviderError{Provider: c.Name(), Message: "returned non-json payload"}
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", &ProviderError{Provider: c.Name(), Message: parsed.Error.Message}
	}
	text := parsed.text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
