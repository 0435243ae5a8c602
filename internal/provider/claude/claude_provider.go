package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"configllm/internal/domain"
	"configllm/internal/port"
	"configllm/internal/provider"
)

const (
	apiVersion = "2023-06-01"
	userAgent  = "configllm"
)

// Notices used by the raw HTTP fallback, which sends text only.
const (
	noticeImageOmitted = "(Image couldn't be included)"
	noticePDFOmitted   = "(PDF couldn't be included)"
)

var imageMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Provider implements port.Provider and port.Fallbacker using the Anthropic
// Messages API: the SDK first, then a raw HTTP request to the same endpoint.
type Provider struct {
	apiKey      string
	model       string
	temperature float64
	endpoint    string
	client      anthropic.Client
	httpClient  *http.Client
	configured  bool
}

// New creates a Claude provider from attempt settings. It never fails; a
// missing key yields an unconfigured provider.
func New(settings domain.Settings) (port.Provider, error) {
	return NewProvider(settings), nil
}

// NewProvider creates a Claude provider.
func NewProvider(settings domain.Settings) *Provider {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = domain.DefaultBaseURLs[domain.ProviderClaude]
	}
	timeout := time.Duration(settings.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	p := &Provider{
		apiKey:      settings.APIKey,
		model:       settings.ModelID(),
		temperature: settings.Temperature,
		endpoint:    messagesEndpoint(baseURL),
		httpClient:  httpClient,
		configured:  settings.APIKey != "",
	}
	if p.configured {
		p.client = anthropic.NewClient(
			option.WithAPIKey(settings.APIKey),
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		)
	}
	return p
}

// messagesEndpoint derives <scheme>://<host>/v1/messages from a base URL.
func messagesEndpoint(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(baseURL, "/") + "/v1/messages"
	}
	return u.Scheme + "://" + u.Host + "/v1/messages"
}

func (p *Provider) Kind() domain.ProviderKind { return domain.ProviderClaude }

func (p *Provider) Configured() bool { return p.configured }

// Send issues the request through the SDK with the file embedded as a
// document, image or text block.
func (p *Provider) Send(ctx context.Context, req port.ProviderRequest) (string, error) {
	if !p.configured {
		return "", provider.NotConfigured(domain.ProviderClaude)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   provider.MaxOutputTokens,
		Temperature: anthropic.Float(p.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(buildBlocks(req)...),
		},
	}
	if req.SystemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemText}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", sdkFailure(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", provider.EmptyResponse(domain.ProviderClaude)
	}
	return sb.String(), nil
}

func buildBlocks(req port.ProviderRequest) []anthropic.ContentBlockParamUnion {
	d := req.Content
	if d == nil {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.UserText)}
	}

	switch d.Kind {
	case domain.ContentPDF:
		encoded := base64.StdEncoding.EncodeToString(d.Raw)
		return []anthropic.ContentBlockParamUnion{
			anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded}),
			anthropic.NewTextBlock(provider.WithFileName(req.UserText, d.FileName())),
		}
	case domain.ContentImage:
		if !imageMediaTypes[d.MIMEType] {
			return []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(provider.WithNotice(req.UserText, d.FileName(), noticeImageOmitted)),
			}
		}
		encoded := base64.StdEncoding.EncodeToString(d.Raw)
		return []anthropic.ContentBlockParamUnion{
			anthropic.NewImageBlockBase64(d.MIMEType, encoded),
			anthropic.NewTextBlock(provider.WithFileName(req.UserText, d.FileName())),
		}
	case domain.ContentText:
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(provider.WithTextContent(req.UserText, d))}
	default:
		return []anthropic.ContentBlockParamUnion{
			anthropic.NewTextBlock(provider.WithNotice(req.UserText, d.FileName(), d.Note)),
		}
	}
}

func sdkFailure(err error) *provider.Failure {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		retryAfter := ""
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("Retry-After")
		}
		return provider.HTTPStatus(domain.ProviderClaude, apiErr.StatusCode, apiErr.Error(), retryAfter)
	}
	return provider.Transport(domain.ProviderClaude, err)
}
