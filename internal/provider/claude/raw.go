package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"configllm/internal/domain"
	"configllm/internal/port"
	"configllm/internal/provider"
)

// Fallback retries a failed SDK call as a raw HTTP request. The raw request
// carries text only; images and PDFs are replaced by a notice.
func (p *Provider) Fallback(ctx context.Context, req port.ProviderRequest, _ error) (string, error) {
	reqBody := map[string]interface{}{
		"model":       p.model,
		"max_tokens":  provider.MaxOutputTokens,
		"temperature": p.temperature,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": rawMessage(req),
			},
		},
	}
	if req.SystemText != "" {
		reqBody["system"] = req.SystemText
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", provider.NewFailure(domain.FailureInternal, domain.ProviderClaude, err, "marshaling request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", provider.NewFailure(domain.FailureInternal, domain.ProviderClaude, err, "creating request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", p.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", provider.Transport(domain.ProviderClaude, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", provider.Transport(domain.ProviderClaude, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", provider.HTTPStatus(domain.ProviderClaude, resp.StatusCode, string(respBody), resp.Header.Get("Retry-After"))
	}

	return parseResponse(respBody)
}

func rawMessage(req port.ProviderRequest) string {
	d := req.Content
	if d == nil {
		return req.UserText
	}
	switch d.Kind {
	case domain.ContentImage:
		return provider.WithNotice(req.UserText, d.FileName(), noticeImageOmitted)
	case domain.ContentPDF:
		return provider.WithNotice(req.UserText, d.FileName(), noticePDFOmitted)
	case domain.ContentText:
		return provider.WithTextContent(req.UserText, d)
	default:
		return provider.WithNotice(req.UserText, d.FileName(), d.Note)
	}
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", provider.Transport(domain.ProviderClaude, fmt.Errorf("unmarshaling response: %w", err))
	}

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", provider.EmptyResponse(domain.ProviderClaude)
	}
	return sb.String(), nil
}
