package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "strings"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/studioplanar/planar-backend/internal/logger"
  "github.com/studioplanar/planar-backend/internal/repos"
  "github.com/studioplanar/planar-backend/internal/types"
  "github.com/studioplanar/planar-backend/internal/utils"
)

const DefaultHistoryCap = 20

type SessionService interface {
  CreateSession(ctx context.Context, designIntent string, systemInstruction string) (*types.Session, error)
  GetSession(ctx context.Context, sessionID uuid.UUID) (*types.Session, error)
  // ResolveSession picks the session for an edit. Precedence, first match
  // wins: the previous version's session, then the explicit id, then a new
  // session seeded from the design intent. A given id that does not exist is
  // a NotFound failure, not a fall-through.
  ResolveSession(ctx context.Context, previous *types.Version, explicitSessionID *uuid.UUID, designIntent string, systemInstruction string) (*types.Session, error)
  // History decodes the stored turn sequence. An unparseable blob degrades to
  // an empty history: losing old context is less harmful than blocking edits.
  History(session *types.Session) []types.Turn
  // AppendTurns appends turns, evicts oldest-first down to the cap, and
  // replaces the stored history in full.
  AppendTurns(ctx context.Context, session *types.Session, newTurns ...types.Turn) error
}

type sessionService struct {
  log         *logger.Logger
  sessionRepo repos.SessionRepo
  historyCap  int
  newID       func() uuid.UUID
}

func NewSessionService(log *logger.Logger, sessionRepo repos.SessionRepo, historyCap int, newID func() uuid.UUID) SessionService {
  if historyCap <= 0 {
    historyCap = DefaultHistoryCap
  }
  if newID == nil {
    newID = uuid.New
  }
  return &sessionService{
    log:         log.With("service", "SessionService"),
    sessionRepo: sessionRepo,
    historyCap:  historyCap,
    newID:       newID,
  }
}

func (s *sessionService) CreateSession(ctx context.Context, designIntent string, systemInstruction string) (*types.Session, error) {
  designIntent = strings.TrimSpace(designIntent)
  if designIntent == "" {
    return nil, fmt.Errorf("%w: design intent is required", ErrValidation)
  }
  session := &types.Session{
    ID:                s.newID(),
    DesignIntent:      designIntent,
    SystemInstruction: systemInstruction,
    IntentHash:        utils.Fingerprint(designIntent),
    History:           datatypes.JSON([]byte("[]")),
  }
  created, err := s.sessionRepo.Create(ctx, nil, session)
  if err != nil {
    return nil, fmt.Errorf("%w: failed to create session: %v", ErrStorageFailure, err)
  }
  s.log.Info("Created session", "session_id", created.ID, "intent_hash", created.IntentHash)
  return created, nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*types.Session, error) {
  session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
    }
    return nil, fmt.Errorf("Failed to load session %s: %w", sessionID, err)
  }
  return session, nil
}

func (s *sessionService) ResolveSession(ctx context.Context, previous *types.Version, explicitSessionID *uuid.UUID, designIntent string, systemInstruction string) (*types.Session, error) {
  if previous != nil && previous.SessionID != nil {
    return s.GetSession(ctx, *previous.SessionID)
  }
  if explicitSessionID != nil {
    return s.GetSession(ctx, *explicitSessionID)
  }
  if strings.TrimSpace(designIntent) != "" {
    return s.CreateSession(ctx, designIntent, systemInstruction)
  }
  return nil, fmt.Errorf("%w: need a previous version, a session id, or a design intent", ErrMissingContext)
}

func (s *sessionService) History(session *types.Session) []types.Turn {
  if session == nil || len(session.History) == 0 {
    return nil
  }
  var turns []types.Turn
  if err := json.Unmarshal(session.History, &turns); err != nil {
    s.log.Warn("Stored session history failed to parse, substituting empty history",
      "session_id", session.ID, "error", err)
    return nil
  }
  return turns
}

func (s *sessionService) AppendTurns(ctx context.Context, session *types.Session, newTurns ...types.Turn) error {
  if session == nil {
    return fmt.Errorf("%w: session is required", ErrValidation)
  }
  if len(newTurns) == 0 {
    return nil
  }
  turns := append(s.History(session), newTurns...)
  if len(turns) > s.historyCap {
    turns = turns[len(turns)-s.historyCap:]
  }
  raw, err := json.Marshal(turns)
  if err != nil {
    return fmt.Errorf("Failed to encode session history: %w", err)
  }
  if err := s.sessionRepo.ReplaceHistory(ctx, nil, session.ID, datatypes.JSON(raw)); err != nil {
    return fmt.Errorf("%w: failed to persist session history: %v", ErrStorageFailure, err)
  }
  session.History = datatypes.JSON(raw)
  return nil
}
