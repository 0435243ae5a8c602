package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	_ "golang.org/x/image/webp"

	"configllm/internal/domain"
	"configllm/internal/port"
	"configllm/internal/provider"
)

// CompatiblePDFCharLimit caps extracted PDF text sent to compatible backends.
const CompatiblePDFCharLimit = 15000

const noticeContentOmitted = "(File content omitted due to potential API incompatibility. Original error: %s)"

// Provider implements port.Provider for the OpenAI chat-completions API and
// OpenAI-compatible backends. The compatible variant caps PDF text, checks
// that images decode before sending them, and retries once without the file.
type Provider struct {
	kind        domain.ProviderKind
	model       string
	temperature float64
	client      openai.Client
	extractor   port.PDFTextExtractor
	configured  bool
}

// Factory returns a provider factory for the OpenAI vision variant.
func Factory(extractor port.PDFTextExtractor) port.ProviderFactory {
	return func(settings domain.Settings) (port.Provider, error) {
		return NewProvider(settings, extractor), nil
	}
}

// CompatibleFactory returns a provider factory for OpenAI-compatible backends.
func CompatibleFactory(extractor port.PDFTextExtractor) port.ProviderFactory {
	return func(settings domain.Settings) (port.Provider, error) {
		settings.Provider = domain.ProviderCompatible
		return NewProvider(settings, extractor), nil
	}
}

// NewProvider creates a provider for settings.Provider, which must be
// ProviderOpenAI or ProviderCompatible.
func NewProvider(settings domain.Settings, extractor port.PDFTextExtractor) *Provider {
	kind := settings.Provider
	if kind != domain.ProviderCompatible {
		kind = domain.ProviderOpenAI
	}
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = domain.DefaultBaseURLs[kind]
	}
	timeout := time.Duration(settings.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	settings.Provider = kind

	p := &Provider{
		kind:        kind,
		model:       settings.ModelID(),
		temperature: settings.Temperature,
		extractor:   extractor,
		configured:  settings.APIKey != "",
	}
	if p.configured {
		p.client = openai.NewClient(
			option.WithAPIKey(settings.APIKey),
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(&http.Client{Timeout: timeout}),
			option.WithMaxRetries(0),
		)
	}
	return p
}

func (p *Provider) Kind() domain.ProviderKind { return p.kind }

func (p *Provider) Configured() bool { return p.configured }

func (p *Provider) compatible() bool { return p.kind == domain.ProviderCompatible }

// Send issues the chat completion with the file attached as an image part or
// appended text.
func (p *Provider) Send(ctx context.Context, req port.ProviderRequest) (string, error) {
	if !p.configured {
		return "", provider.NotConfigured(p.kind)
	}
	return p.complete(ctx, req.SystemText, p.buildParts(ctx, req))
}

// Fallback retries a compatible-backend request once with the file content
// stripped. The vision variant has no fallback.
func (p *Provider) Fallback(ctx context.Context, req port.ProviderRequest, cause error) (string, error) {
	if !p.compatible() || req.Content == nil {
		return "", provider.ErrNoFallback
	}
	snippet := provider.Truncate(provider.AsFailure(p.kind, cause).Message, 200)
	text := provider.WithNotice(req.UserText, req.Content.FileName(), fmt.Sprintf(noticeContentOmitted, snippet))
	return p.complete(ctx, req.SystemText, []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(text)})
}

func (p *Provider) complete(ctx context.Context, system string, parts []openai.ChatCompletionContentPartUnionParam) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(parts))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    messages,
		Temperature: openai.Float(p.temperature),
		MaxTokens:   openai.Int(provider.MaxOutputTokens),
	})
	if err != nil {
		return "", p.sdkFailure(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", provider.EmptyResponse(p.kind)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) buildParts(ctx context.Context, req port.ProviderRequest) []openai.ChatCompletionContentPartUnionParam {
	d := req.Content
	if d == nil {
		return []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(req.UserText)}
	}

	switch d.Kind {
	case domain.ContentImage:
		if p.compatible() {
			if notice := imageNotice(d); notice != "" {
				return []openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(provider.WithNotice(req.UserText, d.FileName(), notice)),
				}
			}
		}
		dataURL := "data:" + d.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(d.Raw)
		return []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(provider.WithFileName(req.UserText, d.FileName())),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		}
	case domain.ContentPDF:
		limit := 0
		if p.compatible() {
			limit = CompatiblePDFCharLimit
		}
		section := provider.PDFSection(ctx, p.extractor, d, limit)
		return []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(provider.WithNotice(req.UserText, d.FileName(), section)),
		}
	case domain.ContentText:
		return []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(provider.WithTextContent(req.UserText, d))}
	default:
		return []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(provider.WithNotice(req.UserText, d.FileName(), d.Note)),
		}
	}
}

// imageNotice returns a notice when the image cannot be decoded locally.
func imageNotice(d *domain.ContentDescriptor) string {
	_, _, err := image.DecodeConfig(bytes.NewReader(d.Raw))
	switch {
	case err == nil:
		return ""
	case errors.Is(err, image.ErrFormat):
		return fmt.Sprintf("(Image processing requires a decoder for %s, which is not available.)", d.MIMEType)
	default:
		return "(Image file could not be processed.)"
	}
}

func (p *Provider) sdkFailure(err error) *provider.Failure {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		retryAfter := ""
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("Retry-After")
		}
		return provider.HTTPStatus(p.kind, apiErr.StatusCode, apiErr.Error(), retryAfter)
	}
	return provider.Transport(p.kind, err)
}
