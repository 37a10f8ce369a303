// Package chat runs one conversational turn end to end: matching, session
// context, transcript persistence and lead capture.
package chat

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"property-chat/internal/common/config"
	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/metrics"
	"property-chat/internal/common/observability"
	"property-chat/internal/matcher"
	"property-chat/internal/models"
	"property-chat/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// FollowupStarter kicks off asynchronous processing for a new lead.
type FollowupStarter interface {
	StartLeadFollowup(ctx context.Context, lead *models.Lead) error
}

// Dependencies are the collaborators of Service. Deduper, Followup and
// Observability are optional.
type Dependencies struct {
	Matcher       *matcher.Matcher
	Store         store.Store
	Deduper       *LeadDeduper
	Followup      FollowupStarter
	Observability *observability.Observability
}

type Service struct {
	cfg      config.ChatConfig
	matcher  *matcher.Matcher
	store    store.Store
	deduper  *LeadDeduper
	followup FollowupStarter
	obs      *observability.Observability
	logger   logger.Logger

	now   func() time.Time
	newID func() string
}

func NewService(cfg config.ChatConfig, deps Dependencies, log logger.Logger) *Service {
	m := deps.Matcher
	if m == nil {
		m = matcher.New(nil, nil, cfg.ConfidenceThreshold)
	}
	deduper := deps.Deduper
	if deduper == nil {
		deduper = NewLeadDeduper(nil, deps.Store, config.GetDuration(cfg.LeadDedupeTTL))
	}
	obs := deps.Observability
	if obs == nil {
		obs = &observability.Observability{}
	}

	return &Service{
		cfg:      cfg,
		matcher:  m,
		store:    deps.Store,
		deduper:  deduper,
		followup: deps.Followup,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "chat"}),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

// Init returns the static greeting data for a new conversation.
func (s *Service) Init() InitResponse {
	questions := append([]string(nil), s.cfg.SuggestedQuestions...)
	return InitResponse{
		AgentName:          s.cfg.AgentName,
		Greeting:           s.cfg.Greeting,
		SuggestedQuestions: questions,
	}
}

// Fallback is the clarifying reply shown when a turn fails.
func (s *Service) Fallback() matcher.Reply {
	return s.matcher.Fallback()
}

// SendMessage processes one visitor message.
func (s *Service) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, errors.NewMessageRequiredError()
	}

	channel := req.Channel
	if channel == "" {
		channel = ChannelHTTP
	}

	if s.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.GetDuration(s.cfg.TurnTimeout))
		defer cancel()
	}

	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "chat.send_message", attribute.String("channel", channel))
	defer span.End()

	result := s.matcher.Process(message)
	intent := result.Reply.Intent
	entities := result.Entities.ToMap()
	span.SetAttributes(attribute.String("intent", intent))

	sessionID, baseContext, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithFields(map[string]interface{}{"sessionId": sessionID})

	userMsg := &models.ChatMessage{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   message,
		Metadata: map[string]interface{}{
			"intent":     intent,
			"confidence": result.Detection.Confidence,
			"entities":   entities,
		},
		CreatedAt: s.now(),
	}
	if err := s.persistFailure(log, "append_user_message", s.store.AppendMessage(ctx, userMsg)); err != nil {
		return nil, err
	}

	replyMsg := &models.ChatMessage{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   result.Reply.Text,
		Metadata: map[string]interface{}{
			"intent":   intent,
			"entities": entities,
			"actions":  result.Reply.Actions,
		},
		CreatedAt: s.now(),
	}
	if err := s.persistFailure(log, "append_assistant_message", s.store.AppendMessage(ctx, replyMsg)); err != nil {
		return nil, err
	}

	merged := MergeContext(baseContext, entities)
	merged[models.ContextKeyStage] = StageForIntent(intent)
	merged[models.ContextKeyLastIntent] = intent

	phone := result.Entities.Phone
	leadCaptured := phone != ""
	if err := s.persistFailure(log, "update_session_context", s.store.UpdateSessionContext(ctx, sessionID, merged, leadCaptured)); err != nil {
		return nil, err
	}

	if leadCaptured {
		if err := s.captureLead(ctx, log, sessionID, phone, merged); err != nil {
			return nil, err
		}
	}

	elapsed := time.Since(start)
	metrics.ChatTurnsTotal.WithLabelValues(intent, channel).Inc()
	metrics.ChatTurnDuration.WithLabelValues(channel).Observe(elapsed.Seconds())
	if result.Reply.Fallback {
		metrics.ChatUnclearTotal.Inc()
	}
	s.obs.RecordTurn(ctx, intent, elapsed)

	log.Debug("Chat turn processed", map[string]interface{}{
		"intent":       intent,
		"confidence":   result.Detection.Confidence,
		"entities":     len(entities),
		"leadCaptured": leadCaptured,
		"durationMs":   elapsed.Milliseconds(),
	})

	return &SendMessageResponse{
		SessionID: sessionID,
		Message: ReplyMessage{
			ID:        replyMsg.ID,
			Role:      models.RoleAssistant,
			Content:   replyMsg.Content,
			Timestamp: replyMsg.CreatedAt,
		},
		SuggestedActions: result.Reply.Actions,
		Context:          merged,
		Entities:         entities,
		Intent:           intent,
		Confidence:       result.Detection.Confidence,
		LeadCaptured:     leadCaptured,
	}, nil
}

// resolveSession returns the session id for the turn and the context the
// entities are merged into.
func (s *Service) resolveSession(ctx context.Context, req SendMessageRequest) (string, map[string]interface{}, error) {
	if req.SessionID != "" && !validSessionID(req.SessionID) {
		s.logger.Warn("Malformed session id, starting a new session", map[string]interface{}{"sessionId": req.SessionID})
		req.SessionID = ""
	}
	if req.SessionID != "" {
		sess, err := s.store.GetSession(ctx, req.SessionID)
		switch {
		case err != nil:
			log := s.logger.WithFields(map[string]interface{}{"sessionId": req.SessionID})
			if perr := s.persistFailure(log, "get_session", err); perr != nil {
				return "", nil, perr
			}
			return req.SessionID, cloneContext(req.Context), nil
		case sess != nil:
			return sess.ID, cloneContext(sess.Context), nil
		}
	}

	id := req.SessionID
	if id == "" {
		id = s.newID()
	}

	initial := cloneContext(req.Context)
	initial[models.ContextKeyStage] = models.StageGreeting

	sess := &models.ChatSession{
		ID:        id,
		VisitorID: req.VisitorID,
		UserID:    req.UserID,
		Context:   initial,
		StartedAt: s.now(),
	}
	log := s.logger.WithFields(map[string]interface{}{"sessionId": id})
	if err := s.persistFailure(log, "create_session", s.store.CreateSession(ctx, sess)); err != nil {
		return "", nil, err
	}
	return id, cloneContext(initial), nil
}

func (s *Service) captureLead(ctx context.Context, log logger.Logger, sessionID, phone string, snapshot map[string]interface{}) error {
	claimed, source, err := s.deduper.Claim(ctx, sessionID, phone)
	if err != nil {
		if perr := s.persistFailure(log, "lead_dedupe", err); perr != nil {
			return perr
		}
		// Store unavailable: attempt the insert anyway, the unique index is the last guard.
		claimed = true
	}
	if !claimed {
		s.leadDuplicate(log, source)
		return nil
	}

	lead := &models.Lead{
		ID:        s.newID(),
		SessionID: sessionID,
		Source:    models.LeadSourceChat,
		Phone:     phone,
		Status:    models.LeadStatusNew,
		Context:   cloneContext(snapshot),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		if stderrors.Is(err, store.ErrDuplicate) {
			s.leadDuplicate(log, DedupeSourceStore)
			return nil
		}
		s.deduper.Release(ctx, sessionID, phone)
		return s.persistFailure(log, "create_lead", err)
	}

	metrics.LeadsCaptured.Inc()
	log.Info("Lead captured", map[string]interface{}{"leadId": lead.ID})

	if s.followup != nil {
		if err := s.followup.StartLeadFollowup(ctx, lead); err != nil {
			log.Warn("Failed to start lead follow-up", map[string]interface{}{
				"leadId": lead.ID,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

func (s *Service) leadDuplicate(log logger.Logger, source string) {
	metrics.LeadsDuplicate.WithLabelValues(source).Inc()
	log.Info("Lead already captured for session", map[string]interface{}{"dedupeSource": source})
}

// SessionAction applies a handoff or end request.
func (s *Service) SessionAction(ctx context.Context, req SessionActionRequest) (*SessionActionResponse, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, errors.NewInvalidSessionActionError("sessionId is required")
	}
	if req.Action != ActionHandoff && req.Action != ActionEnd {
		return nil, errors.NewInvalidSessionActionError("unknown action: " + req.Action)
	}
	if !validSessionID(req.SessionID) {
		return nil, errors.NewSessionNotFoundError(req.SessionID)
	}
	log := s.logger.WithFields(map[string]interface{}{"sessionId": req.SessionID, "action": req.Action})

	switch req.Action {
	case ActionHandoff:
		if err := s.store.MarkHandoff(ctx, req.SessionID, req.AgentID); err != nil {
			return nil, s.actionError(req.SessionID, "mark_handoff", err)
		}

		note := "Conversation handed off to a human agent"
		if req.AgentID != "" {
			note += " (" + req.AgentID + ")"
		}
		sysMsg := &models.ChatMessage{
			ID:        s.newID(),
			SessionID: req.SessionID,
			Role:      models.RoleSystem,
			Content:   note,
			Metadata:  map[string]interface{}{"action": ActionHandoff, "agentId": req.AgentID},
			CreatedAt: s.now(),
		}
		if err := s.persistFailure(log, "append_system_message", s.store.AppendMessage(ctx, sysMsg)); err != nil {
			return nil, err
		}

		log.Info("Session handed off", nil)
		return &SessionActionResponse{Success: true, Message: HandoffReply}, nil

	case ActionEnd:
		if err := s.store.EndSession(ctx, req.SessionID, s.now()); err != nil {
			return nil, s.actionError(req.SessionID, "end_session", err)
		}
		log.Info("Session ended", nil)
		return &SessionActionResponse{Success: true}, nil

	default:
		return nil, errors.NewInvalidSessionActionError("unknown action: " + req.Action)
	}
}

// History returns the stored transcript of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	if !validSessionID(sessionID) {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.NewPersistenceError("get_session", err)
	}
	if sess == nil {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}

	if limit <= 0 || (s.cfg.HistoryLimit > 0 && limit > s.cfg.HistoryLimit) {
		limit = s.cfg.HistoryLimit
	}

	msgs, err := s.store.ListMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, errors.NewPersistenceError("list_messages", err)
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}

// validSessionID reports whether id can key the session tables, whose id
// columns are UUIDs.
func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Service) actionError(sessionID, op string, err error) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NewSessionNotFoundError(sessionID)
	}
	metrics.PersistenceFailures.WithLabelValues(op).Inc()
	return errors.NewPersistenceError(op, err)
}

// persistFailure records a failed write. In strict mode the failure aborts
// the turn; otherwise it is logged and the turn continues.
func (s *Service) persistFailure(log logger.Logger, op string, err error) error {
	if err == nil {
		return nil
	}

	metrics.PersistenceFailures.WithLabelValues(op).Inc()
	log.Error("Persistence failed", map[string]interface{}{
		"operation":  op,
		"error":      err.Error(),
		"durability": s.cfg.Durability,
	})

	if s.cfg.Strict() {
		return errors.NewPersistenceError(op, err)
	}
	return nil
}
