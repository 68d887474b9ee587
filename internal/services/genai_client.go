package services

import (
  "context"
  "fmt"
  "os"

  "google.golang.org/genai"

  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/types"
)

// ImageGenClient is the generation oracle: prior turns in, image bytes plus
// optional commentary out. Calls are plain blocking network operations; there
// is no retry or timeout layer here, failures propagate to the caller.
type ImageGenClient interface {
  GenerateImage(ctx context.Context, turns []types.Turn, systemInstruction string, aspectRatio string) (*ImageGenResult, error)
  ModelName() string
}

type ImageGenResult struct {
  ImageData  []byte
  ImageMime  string
  Commentary string
}

type genaiImageClient struct {
  log    *logger.Logger
  client *genai.Client
  model  string
}

func NewGenaiImageClient(log *logger.Logger) (ImageGenClient, error) {
  serviceLog := log.With("service", "GenaiImageClient")
  apiKey := os.Getenv("GEMINI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing GEMINI_API_KEY")
  }
  model := os.Getenv("GEMINI_IMAGE_MODEL")
  if model == "" {
    model = "gemini-2.5-flash-image"
  }
  client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
    APIKey:  apiKey,
    Backend: genai.BackendGeminiAPI,
  })
  if err != nil {
    return nil, fmt.Errorf("Failed to create genai client: %w", err)
  }
  return &genaiImageClient{
    log:    serviceLog,
    client: client,
    model:  model,
  }, nil
}

func (gc *genaiImageClient) ModelName() string {
  return gc.model
}

func (gc *genaiImageClient) GenerateImage(ctx context.Context, turns []types.Turn, systemInstruction string, aspectRatio string) (*ImageGenResult, error) {
  contents := make([]*genai.Content, 0, len(turns))
  for _, turn := range turns {
    role := "user"
    if turn.Role == types.TurnRoleModel {
      role = "model"
    }
    parts := make([]*genai.Part, 0, len(turn.Parts))
    for _, p := range turn.Parts {
      if p.Text != "" {
        parts = append(parts, genai.NewPartFromText(p.Text))
        continue
      }
      if len(p.Data) > 0 {
        parts = append(parts, genai.NewPartFromBytes(p.Data, p.MimeType))
      }
    }
    if len(parts) == 0 {
      continue
    }
    contents = append(contents, &genai.Content{Role: role, Parts: parts})
  }

  config := &genai.GenerateContentConfig{
    ResponseModalities: []string{"TEXT", "IMAGE"},
  }
  if systemInstruction != "" {
    config.SystemInstruction = &genai.Content{
      Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)},
    }
  }
  if aspectRatio != "" {
    config.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
  }

  resp, err := gc.client.Models.GenerateContent(ctx, gc.model, contents, config)
  if err != nil {
    return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
  }
  if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
    return nil, fmt.Errorf("%w: empty candidate list", ErrUpstreamIncomplete)
  }

  result := &ImageGenResult{}
  for _, part := range resp.Candidates[0].Content.Parts {
    if part == nil {
      continue
    }
    if part.InlineData != nil && len(part.InlineData.Data) > 0 && len(result.ImageData) == 0 {
      result.ImageData = part.InlineData.Data
      result.ImageMime = part.InlineData.MIMEType
      continue
    }
    if part.Text != "" {
      if result.Commentary != "" {
        result.Commentary += "\n"
      }
      result.Commentary += part.Text
    }
  }
  if len(result.ImageData) == 0 {
    return nil, fmt.Errorf("%w: model returned text only", ErrUpstreamIncomplete)
  }
  if result.ImageMime == "" {
    result.ImageMime = "image/png"
  }
  return result, nil
}
