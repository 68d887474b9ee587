package handlers

import (
  "encoding/base64"
  "errors"
  "io"
  "net/http"
  "path"
  "strings"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/services"
)

const maxUploadBytes = 25 << 20

var errTooLarge = errors.New("uploaded file exceeds the 25 MiB limit")

type EditorHandler struct {
  log           *logger.Logger
  editorService services.EditorService
  graphService  services.VersionGraphService
  angleService  services.AngleService
}

func NewEditorHandler(log *logger.Logger, esvc services.EditorService, gsvc services.VersionGraphService, asvc services.AngleService) *EditorHandler {
  return &EditorHandler{
    log:           log.With("handler", "EditorHandler"),
    editorService: esvc,
    graphService:  gsvc,
    angleService:  asvc,
  }
}

// POST /api/upload (multipart)
// Seed a session and a root version from an uploaded floor plan or photo.
func (h *EditorHandler) Upload(c *gin.Context) {
  fileHeader, err := c.FormFile("file")
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", err)
    return
  }
  if fileHeader.Size > maxUploadBytes {
    RespondError(c, http.StatusBadRequest, "validation_error", errTooLarge)
    return
  }
  file, err := fileHeader.Open()
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", err)
    return
  }
  defer file.Close()
  data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", err)
    return
  }
  if len(data) > maxUploadBytes {
    RespondError(c, http.StatusBadRequest, "validation_error", errTooLarge)
    return
  }

  mimeType := fileHeader.Header.Get("Content-Type")
  result, err := h.editorService.Upload(c.Request.Context(), services.UploadInput{
    FileName:     fileHeader.Filename,
    MimeType:     mimeType,
    Data:         data,
    DesignIntent: c.PostForm("design_intent"),
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}

type editRequest struct {
  PreviousVersionID string              `json:"previous_version_id"`
  SessionID         string              `json:"session_id"`
  DesignIntent      string              `json:"design_intent"`
  Instruction       string              `json:"instruction"`
  AngleHint         string              `json:"angle_hint"`
  AspectRatio       string              `json:"aspect_ratio"`
  RequestID         string              `json:"request_id"`
  Attachments       []attachmentPayload `json:"attachments"`
  Mask              *attachmentPayload  `json:"mask"`
}

type attachmentPayload struct {
  MimeType string `json:"mime_type"`
  Data     string `json:"data"`
}

// POST /api/edit (JSON)
func (h *EditorHandler) Edit(c *gin.Context) {
  var req editRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", err)
    return
  }

  in := services.EditInput{
    DesignIntent: req.DesignIntent,
    Instruction:  req.Instruction,
    AngleHint:    req.AngleHint,
    AspectRatio:  req.AspectRatio,
    RequestID:    req.RequestID,
  }
  if idStr := strings.TrimSpace(req.PreviousVersionID); idStr != "" {
    id, err := uuid.Parse(idStr)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "validation_error", err)
      return
    }
    in.PreviousVersionID = &id
  }
  if idStr := strings.TrimSpace(req.SessionID); idStr != "" {
    id, err := uuid.Parse(idStr)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "validation_error", err)
      return
    }
    in.SessionID = &id
  }
  for _, att := range req.Attachments {
    decoded, err := decodeAttachment(att)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "validation_error", err)
      return
    }
    in.Attachments = append(in.Attachments, decoded)
  }
  if req.Mask != nil {
    decoded, err := decodeAttachment(*req.Mask)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "validation_error", err)
      return
    }
    in.Mask = &decoded
  }

  result, err := h.editorService.Edit(c.Request.Context(), in)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}

// GET /api/render-angle?angle_id=patio
func (h *EditorHandler) RenderAngle(c *gin.Context) {
  version, err := h.angleService.LocateLatest(c.Request.Context(), c.Query("angle_id"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "version_id": version.ID,
    "public_url": version.ArtifactURL,
    "angle":      version.AngleLabel,
    "created_at": version.CreatedAt,
  })
}

// GET /api/history/:id
// Returns the descendant subtree of the queried version, breadth-first by
// depth, not the ancestor chain back to the root.
func (h *EditorHandler) History(c *gin.Context) {
  versionID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", err)
    return
  }
  versions, err := h.graphService.Lineage(c.Request.Context(), versionID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"versions": versions})
}

// GET /api/view/:id
// Accepts either a bare version id or the artifact object name
// (version id plus file extension).
func (h *EditorHandler) View(c *gin.Context) {
  raw := c.Param("id")
  versionID, err := uuid.Parse(raw)
  if err != nil {
    if ext := path.Ext(raw); ext != "" {
      versionID, err = uuid.Parse(strings.TrimSuffix(raw, ext))
    }
    if err != nil {
      RespondError(c, http.StatusBadRequest, "validation_error", err)
      return
    }
  }
  version, err := h.graphService.GetVersion(c.Request.Context(), versionID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "version":    version,
    "public_url": version.ArtifactURL,
  })
}

func decodeAttachment(att attachmentPayload) (services.EditAttachment, error) {
  data, err := base64.StdEncoding.DecodeString(att.Data)
  if err != nil {
    return services.EditAttachment{}, err
  }
  return services.EditAttachment{MimeType: att.MimeType, Data: data}, nil
}
