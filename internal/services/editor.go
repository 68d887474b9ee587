package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/repos"
  "github.com/studioplanar/planar-backend/internal/types"
)

// EditorConfig collects the process-wide defaults the orchestrator needs, so
// tests can inject deterministic values instead of reading globals.
type EditorConfig struct {
  ModelName             string
  SystemPromptTemplate  string
  SupportedAspectRatios []string
  NewID                 func() uuid.UUID
}

const defaultSystemPromptTemplate = "You are an architectural visualization assistant. The client's design intent: %s. Apply the requested edit while keeping every other element of the design unchanged."

func DefaultEditorConfig() EditorConfig {
  return EditorConfig{
    SystemPromptTemplate:  defaultSystemPromptTemplate,
    SupportedAspectRatios: []string{"1:1", "3:4", "4:3", "9:16", "16:9", "21:9"},
    NewID:                 uuid.New,
  }
}

var allowedUploadMimes = map[string]bool{
  "image/png":     true,
  "image/jpeg":    true,
  "image/webp":    true,
  "image/svg+xml": true,
}

type UploadInput struct {
  FileName     string
  MimeType     string
  Data         []byte
  DesignIntent string
}

type UploadResult struct {
  VersionID  uuid.UUID `json:"version_id"`
  SessionID  uuid.UUID `json:"session_id"`
  PublicURL  string    `json:"public_url"`
  Suggestion string    `json:"suggestion"`
}

type EditAttachment struct {
  MimeType string
  Data     []byte
}

type EditInput struct {
  PreviousVersionID *uuid.UUID
  SessionID         *uuid.UUID
  DesignIntent      string
  Instruction       string
  AngleHint         string
  AspectRatio       string
  RequestID         string
  Attachments       []EditAttachment
  Mask              *EditAttachment
}

type EditResult struct {
  VersionID   uuid.UUID `json:"version_id"`
  SessionID   uuid.UUID `json:"session_id"`
  PublicURL   string    `json:"public_url"`
  DiffSummary string    `json:"diff_summary,omitempty"`
  AngleLabel  string    `json:"angle_label,omitempty"`
  Suggestion  string    `json:"suggestion"`
}

// EditorService runs the end-to-end upload and edit workflows over the
// session store, the version graph, the image model, and the blob store.
type EditorService interface {
  Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
  Edit(ctx context.Context, in EditInput) (*EditResult, error)
}

type editorService struct {
  log            *logger.Logger
  cfg            EditorConfig
  sessionService SessionService
  graphService   VersionGraphService
  angleService   AngleService
  versionRepo    repos.VersionRepo
  bucketService  BucketService
  imageClient    ImageGenClient
}

func NewEditorService(
  log *logger.Logger,
  cfg EditorConfig,
  sessionService SessionService,
  graphService VersionGraphService,
  angleService AngleService,
  versionRepo repos.VersionRepo,
  bucketService BucketService,
  imageClient ImageGenClient,
) EditorService {
  if cfg.SystemPromptTemplate == "" {
    cfg.SystemPromptTemplate = defaultSystemPromptTemplate
  }
  if cfg.NewID == nil {
    cfg.NewID = uuid.New
  }
  if cfg.ModelName == "" {
    cfg.ModelName = imageClient.ModelName()
  }
  return &editorService{
    log:            log.With("service", "EditorService"),
    cfg:            cfg,
    sessionService: sessionService,
    graphService:   graphService,
    angleService:   angleService,
    versionRepo:    versionRepo,
    bucketService:  bucketService,
    imageClient:    imageClient,
  }
}

func (s *editorService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
  if len(in.Data) == 0 {
    return nil, fmt.Errorf("%w: uploaded file is empty", ErrValidation)
  }
  if strings.TrimSpace(in.DesignIntent) == "" {
    return nil, fmt.Errorf("%w: design intent is required", ErrValidation)
  }
  if !allowedUploadMimes[in.MimeType] {
    return nil, fmt.Errorf("%w: unsupported file type %q", ErrValidation, in.MimeType)
  }

  systemInstruction := fmt.Sprintf(s.cfg.SystemPromptTemplate, strings.TrimSpace(in.DesignIntent))
  session, err := s.sessionService.CreateSession(ctx, in.DesignIntent, systemInstruction)
  if err != nil {
    return nil, err
  }

  versionID := s.cfg.NewID()
  key := artifactKey(session.ID, versionID, in.MimeType)
  attrs := map[string]string{
    "asset_type":  "seed_upload",
    "intent_hash": session.IntentHash,
  }
  if err := s.bucketService.UploadObject(ctx, key, in.Data, in.MimeType, attrs); err != nil {
    return nil, fmt.Errorf("%w: blob upload failed: %v", ErrUpstreamFailure, err)
  }
  publicURL := s.bucketService.PublicURL(key)

  now := time.Now().UTC()
  sessionID := session.ID
  version := &types.Version{
    ID:           versionID,
    SessionID:    &sessionID,
    DesignIntent: session.DesignIntent,
    ModelName:    s.cfg.ModelName,
    ArtifactKey:  key,
    ArtifactURL:  publicURL,
    Metadata: types.VersionMetadata{
      Source:     "upload",
      IntentHash: session.IntentHash,
      CreatedAt:  now,
      Extra:      map[string]string{"original_name": in.FileName},
    }.ToJSON(),
  }
  if _, err := s.graphService.CreateVersion(ctx, version); err != nil {
    // The blob already landed; leave the orphan for the reclamation sweep.
    s.log.Error("Version row write failed after blob upload, orphaned object remains", "key", key, "error", err)
    return nil, err
  }

  return &UploadResult{
    VersionID:  versionID,
    SessionID:  session.ID,
    PublicURL:  publicURL,
    Suggestion: "Try an edit like \"render the patio view\" or \"make the facade brick\".",
  }, nil
}

func (s *editorService) Edit(ctx context.Context, in EditInput) (*EditResult, error) {
  instruction := strings.TrimSpace(in.Instruction)
  if instruction == "" {
    return nil, fmt.Errorf("%w: edit instruction is required", ErrValidation)
  }

  // Idempotency check runs before any external call; a replayed request id
  // returns the prior result instead of minting a duplicate version.
  if requestID := strings.TrimSpace(in.RequestID); requestID != "" {
    if prior, err := s.versionRepo.GetByRequestID(ctx, nil, requestID); err == nil {
      s.log.Info("Replaying prior result for duplicate request", "request_id", requestID, "version_id", prior.ID)
      return s.resultFromVersion(prior), nil
    } else if !errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, fmt.Errorf("Failed idempotency lookup for request %q: %w", requestID, err)
    }
  }

  var parent *types.Version
  if in.PreviousVersionID != nil {
    var err error
    parent, err = s.graphService.GetVersion(ctx, *in.PreviousVersionID)
    if err != nil {
      return nil, err
    }
  }

  systemInstruction := fmt.Sprintf(s.cfg.SystemPromptTemplate, strings.TrimSpace(in.DesignIntent))
  session, err := s.sessionService.ResolveSession(ctx, parent, in.SessionID, in.DesignIntent, systemInstruction)
  if err != nil {
    return nil, err
  }

  aspectRatio := s.resolveAspectRatio(in.AspectRatio, parent)
  angleLabel := s.angleService.InferAngle(instruction, in.AngleHint)

  userTurn, inputIDs, err := s.buildUserTurn(ctx, instruction, parent, in)
  if err != nil {
    return nil, err
  }

  oracleInstruction := session.SystemInstruction
  if oracleInstruction == "" {
    oracleInstruction = systemInstruction
  }
  if angleLabel != "" {
    oracleInstruction += fmt.Sprintf(" Render the scene from the %s viewpoint.", angleLabel)
  }

  turns := append(s.sessionService.History(session), userTurn)
  gen, err := s.imageClient.GenerateImage(ctx, turns, oracleInstruction, aspectRatio)
  if err != nil {
    return nil, err
  }

  versionID := s.cfg.NewID()
  key := artifactKey(session.ID, versionID, gen.ImageMime)
  attrs := map[string]string{
    "asset_type":  "generated_edit",
    "intent_hash": session.IntentHash,
  }
  if parent != nil {
    attrs["parent_version_id"] = parent.ID.String()
  }
  if err := s.bucketService.UploadObject(ctx, key, gen.ImageData, gen.ImageMime, attrs); err != nil {
    return nil, fmt.Errorf("%w: blob upload failed: %v", ErrUpstreamFailure, err)
  }
  publicURL := s.bucketService.PublicURL(key)

  now := time.Now().UTC()
  sessionID := session.ID
  meta := types.VersionMetadata{
    Source:           "edit",
    IntentHash:       session.IntentHash,
    AngleLabel:       angleLabel,
    AspectRatio:      aspectRatio,
    RequestID:        strings.TrimSpace(in.RequestID),
    InputArtifactIDs: inputIDs,
    CreatedAt:        now,
  }
  version := &types.Version{
    ID:              versionID,
    SessionID:       &sessionID,
    DesignIntent:    session.DesignIntent,
    EditInstruction: instruction,
    ModelName:       s.cfg.ModelName,
    ArtifactKey:     key,
    ArtifactURL:     publicURL,
    AngleLabel:      angleLabel,
    AspectRatio:     aspectRatio,
    RequestID:       strings.TrimSpace(in.RequestID),
    DiffSummary:     gen.Commentary,
  }
  if parent != nil {
    parentID := parent.ID
    version.ParentID = &parentID
    meta.ParentID = parentID.String()
  }
  version.Metadata = meta.ToJSON()
  if _, err := s.graphService.CreateVersion(ctx, version); err != nil {
    s.log.Error("Version row write failed after blob upload, orphaned object remains", "key", key, "error", err)
    return nil, err
  }

  modelTurn := types.Turn{
    Role: types.TurnRoleModel,
    Parts: []types.TurnPart{
      types.BinaryPart(gen.ImageMime, gen.ImageData),
    },
  }
  if gen.Commentary != "" {
    modelTurn.Parts = append([]types.TurnPart{types.TextPart(gen.Commentary)}, modelTurn.Parts...)
  }
  if err := s.sessionService.AppendTurns(ctx, session, userTurn, modelTurn); err != nil {
    // The version is durable; stale context only degrades the next edit.
    s.log.Warn("Failed to append turns to session history", "session_id", session.ID, "error", err)
  }

  return &EditResult{
    VersionID:   versionID,
    SessionID:   session.ID,
    PublicURL:   publicURL,
    DiffSummary: gen.Commentary,
    AngleLabel:  angleLabel,
    Suggestion:  suggestionFor(angleLabel),
  }, nil
}

func (s *editorService) resolveAspectRatio(requested string, parent *types.Version) string {
  requested = strings.TrimSpace(requested)
  for _, ratio := range s.cfg.SupportedAspectRatios {
    if requested == ratio {
      return requested
    }
  }
  if parent != nil {
    return parent.AspectRatio
  }
  return ""
}

func (s *editorService) buildUserTurn(ctx context.Context, instruction string, parent *types.Version, in EditInput) (types.Turn, []string, error) {
  parts := []types.TurnPart{types.TextPart(instruction)}
  var inputIDs []string
  if parent != nil {
    parentBytes, err := s.bucketService.DownloadObject(ctx, parent.ArtifactKey)
    if err != nil {
      return types.Turn{}, nil, fmt.Errorf("%w: failed to fetch parent artifact: %v", ErrUpstreamFailure, err)
    }
    parts = append(parts, types.BinaryPart(mimeForKey(parent.ArtifactKey), parentBytes))
    inputIDs = append(inputIDs, parent.ID.String())
  }
  for _, att := range in.Attachments {
    if len(att.Data) > 0 {
      parts = append(parts, types.BinaryPart(att.MimeType, att.Data))
    }
  }
  if in.Mask != nil && len(in.Mask.Data) > 0 {
    parts = append(parts, types.BinaryPart(in.Mask.MimeType, in.Mask.Data))
  }
  return types.Turn{Role: types.TurnRoleUser, Parts: parts}, inputIDs, nil
}

func (s *editorService) resultFromVersion(v *types.Version) *EditResult {
  result := &EditResult{
    VersionID:   v.ID,
    PublicURL:   v.ArtifactURL,
    DiffSummary: v.DiffSummary,
    AngleLabel:  v.AngleLabel,
    Suggestion:  suggestionFor(v.AngleLabel),
  }
  if v.SessionID != nil {
    result.SessionID = *v.SessionID
  }
  return result
}

func suggestionFor(angleLabel string) string {
  if angleLabel != "" {
    return fmt.Sprintf("Happy with the %s view? Ask for another viewpoint or refine the materials.", angleLabel)
  }
  return "Refine further, or ask for a specific viewpoint like the patio or an aerial view."
}

func artifactKey(sessionID, versionID uuid.UUID, mimeType string) string {
  return fmt.Sprintf("artifacts/%s/%s%s", sessionID, versionID, extensionForMime(mimeType))
}

func extensionForMime(mimeType string) string {
  switch mimeType {
  case "image/jpeg":
    return ".jpg"
  case "image/webp":
    return ".webp"
  case "image/svg+xml":
    return ".svg"
  default:
    return ".png"
  }
}

func mimeForKey(key string) string {
  switch {
  case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
    return "image/jpeg"
  case strings.HasSuffix(key, ".webp"):
    return "image/webp"
  case strings.HasSuffix(key, ".svg"):
    return "image/svg+xml"
  default:
    return "image/png"
  }
}
