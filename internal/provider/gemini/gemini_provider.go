package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
	"google.golang.org/genai"

	"configllm/internal/domain"
	"configllm/internal/port"
	"configllm/internal/provider"
)

const (
	noticeImageUnsupported = "(Image format %s is not supported by Gemini.)"
	noticeImageInvalid     = "(Image file could not be processed.)"
)

var imageMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var baseCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// Provider implements port.Provider for the Gemini generateContent API.
// PDFs are uploaded through the Files API; when the upload fails the
// extracted text is sent instead.
type Provider struct {
	model       string
	temperature float64
	civic       bool
	client      *genai.Client
	extractor   port.PDFTextExtractor
}

// Factory returns a provider factory bound to a PDF text extractor.
func Factory(extractor port.PDFTextExtractor) port.ProviderFactory {
	return func(settings domain.Settings) (port.Provider, error) {
		return NewProvider(settings, extractor), nil
	}
}

// NewProvider creates a Gemini provider. A missing key or a client that
// fails to build yields an unconfigured provider.
func NewProvider(settings domain.Settings, extractor port.PDFTextExtractor) *Provider {
	settings.Provider = domain.ProviderGemini
	p := &Provider{
		model:       settings.ModelID(),
		temperature: settings.Temperature,
		civic:       settings.CivicIntegrity,
		extractor:   extractor,
	}
	if settings.APIKey == "" {
		return p
	}

	timeout := time.Duration(settings.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	cfg := &genai.ClientConfig{
		APIKey:     settings.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if settings.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(settings.BaseURL, "/")}
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		log.Printf("gemini.NewProvider: creating client: %v", err)
		return p
	}
	p.client = client
	return p
}

func (p *Provider) Kind() domain.ProviderKind { return domain.ProviderGemini }

func (p *Provider) Configured() bool { return p.client != nil }

// Send generates content for the request. Blocked prompts and candidates
// become safety failures. An uploaded PDF is deleted once the call returns.
func (p *Provider) Send(ctx context.Context, req port.ProviderRequest) (string, error) {
	if p.client == nil {
		return "", provider.NotConfigured(domain.ProviderGemini)
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.temperature)),
		MaxOutputTokens: int32(provider.MaxOutputTokens),
		SafetySettings:  p.safetySettings(),
	}
	if req.SystemText != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemText, genai.RoleUser)
	}

	parts := p.buildParts(ctx, req)
	if parts.uploaded != nil && parts.uploaded.Name != "" {
		defer p.deleteFile(ctx, parts.uploaded)
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts.parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", withUploadFailure(parts.uploadErr, sdkFailure(err))
	}
	text, err := responseText(resp)
	if err != nil {
		return "", withUploadFailure(parts.uploadErr, provider.AsFailure(domain.ProviderGemini, err))
	}
	return text, nil
}

// withUploadFailure reports a failed PDF upload together with the failure of
// the extracted-text request that replaced it.
func withUploadFailure(uploadErr error, f *provider.Failure) *provider.Failure {
	if uploadErr == nil {
		return f
	}
	upload := provider.NewFailure(domain.FailureTransport, domain.ProviderGemini, uploadErr,
		"uploading PDF to Gemini: %v", uploadErr)
	return provider.Composite(upload, f)
}

func (p *Provider) deleteFile(ctx context.Context, file *genai.File) {
	if _, err := p.client.Files.Delete(context.WithoutCancel(ctx), file.Name, nil); err != nil {
		log.Printf("gemini.Provider.deleteFile: deleting %s: %v", file.Name, err)
	}
}

func (p *Provider) safetySettings() []*genai.SafetySetting {
	categories := baseCategories
	if p.civic {
		categories = append(categories[:len(categories):len(categories)], genai.HarmCategoryCivicIntegrity)
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}

// requestParts is the user turn plus the uploaded file to clean up, or the
// upload error when the PDF fell back to extracted text.
type requestParts struct {
	parts     []*genai.Part
	uploaded  *genai.File
	uploadErr error
}

func (p *Provider) buildParts(ctx context.Context, req port.ProviderRequest) requestParts {
	d := req.Content
	if d == nil {
		return textParts(req.UserText)
	}

	switch d.Kind {
	case domain.ContentImage:
		if notice := imageNotice(d); notice != "" {
			return textParts(provider.WithNotice(req.UserText, d.FileName(), notice))
		}
		return requestParts{parts: []*genai.Part{
			genai.NewPartFromText(provider.WithFileName(req.UserText, d.FileName())),
			genai.NewPartFromBytes(d.Raw, d.MIMEType),
		}}
	case domain.ContentPDF:
		file, err := p.client.Files.Upload(ctx, bytes.NewReader(d.Raw), &genai.UploadFileConfig{
			MIMEType:    "application/pdf",
			DisplayName: d.FileName(),
		})
		if err == nil && (file == nil || file.URI == "") {
			err = errors.New("upload returned no file URI")
		}
		if err == nil {
			return requestParts{
				parts: []*genai.Part{
					genai.NewPartFromText(provider.WithFileName(req.UserText, d.FileName())),
					genai.NewPartFromURI(file.URI, "application/pdf"),
				},
				uploaded: file,
			}
		}
		log.Printf("gemini.Provider.buildParts: uploading %s failed, using extracted text: %v", d.FileName(), err)
		section := provider.PDFSection(ctx, p.extractor, d, 0)
		parts := textParts(provider.WithNotice(req.UserText, d.FileName(), section))
		parts.uploadErr = err
		return parts
	case domain.ContentText:
		return textParts(provider.WithTextContent(req.UserText, d))
	default:
		return textParts(provider.WithNotice(req.UserText, d.FileName(), d.Note))
	}
}

func textParts(text string) requestParts {
	return requestParts{parts: []*genai.Part{genai.NewPartFromText(text)}}
}

func imageNotice(d *domain.ContentDescriptor) string {
	if !imageMediaTypes[d.MIMEType] {
		return fmt.Sprintf(noticeImageUnsupported, d.MIMEType)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(d.Raw)); err != nil {
		return noticeImageInvalid
	}
	return ""
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", provider.EmptyResponse(domain.ProviderGemini)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return "", provider.SafetyBlock(domain.ProviderGemini, string(fb.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return "", provider.EmptyResponse(domain.ProviderGemini)
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", provider.SafetyBlock(domain.ProviderGemini, string(cand.FinishReason))
	}
	if cand.Content == nil {
		return "", provider.EmptyResponse(domain.ProviderGemini)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", provider.EmptyResponse(domain.ProviderGemini)
	}
	return sb.String(), nil
}

func sdkFailure(err error) *provider.Failure {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return provider.HTTPStatus(domain.ProviderGemini, apiErr.Code, apiErr.Message, "")
	}
	return provider.Transport(domain.ProviderGemini, err)
}
