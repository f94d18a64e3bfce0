package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-learning-coach-be/internal/constant"
	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/pkg/logger"
	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/pkg/events"
	"ai-learning-coach-be/pkg/knowledge"
	pktNats "ai-learning-coach-be/pkg/nats"
	"ai-learning-coach-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type IKnowledgeService interface {
	LoadDefault(ctx context.Context) (int, error)
	StartDefaultLoad(ctx context.Context)
	Reload(ctx context.Context) (*dto.ReloadKnowledgeResponse, error)
	SubscribeReload(ctx context.Context, sub ReloadSubscriber) error
	Upload(ctx context.Context, sessionID, filename, contentType string, data []byte) (*dto.UploadKnowledgeResponse, error)
	Summary(ctx context.Context, sessionID string) (*dto.KnowledgeSummaryResponse, error)
	SeedSession(session *store.Session) int
	Health(ctx context.Context) dto.HealthResponse
}

// ReloadSubscriber delivers reload requests from the event bus; the NATS
// subscriber implements it.
type ReloadSubscriber interface {
	Subscribe(ctx context.Context, eventType string, durableName string, handler pktNats.EventHandler) error
}

// Fetcher fetches the default knowledge file.
type Fetcher interface {
	Location() string
	Fetch(ctx context.Context) (*knowledge.Payload, error)
}

type knowledgeService struct {
	source    Fetcher
	catalog   *knowledge.Catalog
	sessions  SessionRepository
	publisher IPublisherService
	pusher    SessionPusher
	logger    logger.ILogger

	// seedMu orders a catalog swap plus reseed against the seeding of new
	// sessions, so no session is left on a superseded catalog.
	seedMu sync.Mutex
}

func NewKnowledgeService(
	source Fetcher,
	catalog *knowledge.Catalog,
	sessions SessionRepository,
	publisher IPublisherService,
	pusher SessionPusher,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		source:    source,
		catalog:   catalog,
		sessions:  sessions,
		publisher: publisher,
		pusher:    pusher,
		logger:    log,
	}
}

var tracer = otel.Tracer("ai-learning-coach-be/service")

// LoadDefault fetches and parses the default source. On success the catalog
// is replaced and every session without an uploaded knowledge base is
// re-seeded. A missing source or unreadable file leaves everything as it was.
func (s *knowledgeService) LoadDefault(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "KnowledgeService.LoadDefault")
	defer span.End()

	location := s.source.Location()
	span.SetAttributes(attribute.String("knowledge.source", location))

	payload, err := s.source.Fetch(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	rows, err := knowledge.ParseFile(payload.Name, payload.ContentType, payload.Data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	entries := s.normalize(location, rows)
	source := store.DefaultSource(location)
	s.seedMu.Lock()
	s.catalog.Replace(entries, source)
	shared, _ := s.catalog.Snapshot()
	reseeded := 0
	for _, session := range s.sessions.All() {
		if session.SeedDefault(shared, source) {
			reseeded++
		}
	}
	s.seedMu.Unlock()

	span.SetAttributes(attribute.Int("knowledge.count", len(entries)), attribute.Int("knowledge.reseeded", reseeded))
	s.logger.Info("KnowledgeService", "Default knowledge loaded", map[string]interface{}{
		"source":   location,
		"count":    len(entries),
		"reseeded": reseeded,
	})

	s.publish(ctx, events.New(events.TypeKnowledgeLoaded, map[string]interface{}{
		"source": source,
		"count":  len(entries),
	}))
	s.push(func(data []byte) { s.pusher.Broadcast(data) }, map[string]interface{}{
		"type":   "knowledge_loaded",
		"source": source,
		"count":  len(entries),
	})

	return len(entries), nil
}

// StartDefaultLoad runs LoadDefault in the background. Failures are logged
// and never reach the caller.
func (s *knowledgeService) StartDefaultLoad(ctx context.Context) {
	go func() {
		if _, err := s.LoadDefault(ctx); err != nil {
			s.logLoadFailure(err)
		}
	}()
}

func (s *knowledgeService) logLoadFailure(err error) {
	details := map[string]interface{}{"source": s.source.Location(), "error": err.Error()}
	switch {
	case errors.Is(err, knowledge.ErrSourceUnavailable):
		s.logger.Warn("KnowledgeService", "Default knowledge source unavailable", details)
	case knowledge.IsLoadError(err):
		s.logger.Warn("KnowledgeService", "Default knowledge file unreadable", details)
	default:
		s.logger.Error("KnowledgeService", "Default knowledge load failed", details)
	}
}

// Reload is LoadDefault for the HTTP surface: failures become AppErrors and
// the previous catalog stays in place.
func (s *knowledgeService) Reload(ctx context.Context) (*dto.ReloadKnowledgeResponse, error) {
	count, err := s.LoadDefault(ctx)
	if err != nil {
		s.logLoadFailure(err)
		if errors.Is(err, knowledge.ErrSourceUnavailable) {
			return nil, serverutils.NewAppError(fiber.StatusServiceUnavailable, "Knowledge source unavailable", err)
		}
		return nil, serverutils.NewUnprocessableError(constant.KnowledgeLoadFailed, nil, err)
	}

	_, source := s.catalog.Snapshot()
	return &dto.ReloadKnowledgeResponse{
		Source: source,
		Count:  count,
		Notice: fmt.Sprintf(constant.KnowledgeLoadedFormat, count),
	}, nil
}

// SubscribeReload re-runs the default load whenever a reload is requested on
// the bus.
func (s *knowledgeService) SubscribeReload(ctx context.Context, sub ReloadSubscriber) error {
	return sub.Subscribe(ctx, events.TypeKnowledgeReloadRequested, constant.DurableKnowledgeReload,
		func(ctx context.Context, event events.Event) error {
			s.logger.Info("KnowledgeService", "Reload requested", event.Payload())
			if _, err := s.LoadDefault(ctx); err != nil {
				// an unavailable or broken file is not fixed by redelivery
				s.logLoadFailure(err)
			}
			return nil
		})
}

// Upload replaces the session's knowledge base with the rows of one file.
// A file that cannot be read leaves the knowledge base untouched; a file
// without a single valid row empties it. Both report the failure notice.
func (s *knowledgeService) Upload(ctx context.Context, sessionID, filename, contentType string, data []byte) (*dto.UploadKnowledgeResponse, error) {
	ctx, span := tracer.Start(ctx, "KnowledgeService.Upload")
	defer span.End()

	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	source := store.UploadSource(filename)
	failed := &dto.UploadKnowledgeResponse{Count: 0, Source: source, Notice: constant.KnowledgeLoadFailed}

	rows, err := knowledge.ParseFile(filename, contentType, data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("KnowledgeService", "Uploaded file unreadable", map[string]interface{}{
			"session_id": sessionID,
			"file":       filename,
			"error":      err.Error(),
		})
		return nil, serverutils.NewUnprocessableError(constant.KnowledgeLoadFailed, failed, err)
	}

	entries := s.normalize(filename, rows)
	session.ReplaceKnowledgeBase(entries, source)
	span.SetAttributes(attribute.Int("knowledge.count", len(entries)))

	s.publish(ctx, events.New(events.TypeKnowledgeLoaded, map[string]interface{}{
		"session_id": sessionID,
		"source":     source,
		"count":      len(entries),
	}))

	if len(entries) == 0 {
		s.logger.Info("KnowledgeService", "Uploaded file has no valid rows", map[string]interface{}{
			"session_id": sessionID,
			"file":       filename,
			"rows":       len(rows),
		})
		return nil, serverutils.NewUnprocessableError(constant.KnowledgeLoadFailed, failed,
			fmt.Errorf("%s: no row with a question keyword", filename))
	}

	s.logger.Info("KnowledgeService", "Knowledge uploaded", map[string]interface{}{
		"session_id": sessionID,
		"file":       filename,
		"count":      len(entries),
	})

	return &dto.UploadKnowledgeResponse{
		Count:  len(entries),
		Source: source,
		Notice: fmt.Sprintf(constant.KnowledgeLoadedFormat, len(entries)),
	}, nil
}

func (s *knowledgeService) normalize(source string, rows []knowledge.Row) []knowledge.Entry {
	report := knowledge.NormalizeDetailed(rows)
	if report.Dropped > 0 {
		s.logger.Debug("KnowledgeService", "Rows without question keyword dropped", map[string]interface{}{
			"source":  source,
			"dropped": report.Dropped,
		})
	}
	for _, c := range report.Collisions {
		s.logger.Debug("KnowledgeService", "Duplicate column for field, later column wins", map[string]interface{}{
			"source":     source,
			"row":        c.Row,
			"field":      c.Field.String(),
			"overridden": c.Overridden,
			"winner":     c.Winner,
		})
	}
	return report.Entries
}

func (s *knowledgeService) Summary(ctx context.Context, sessionID string) (*dto.KnowledgeSummaryResponse, error) {
	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	kb := session.KnowledgeBase()
	keywords := lo.Uniq(lo.Map(kb, func(e knowledge.Entry, _ int) string {
		return strings.TrimSpace(e.QuestionKeyword)
	}))

	return &dto.KnowledgeSummaryResponse{
		Source:   session.KnowledgeSource(),
		Count:    len(kb),
		Keywords: keywords,
	}, nil
}

// SeedSession gives a stored session the current default knowledge base and
// returns its size. Callers save the session first: a default load running
// concurrently then either reseeds it or has finished before the snapshot.
func (s *knowledgeService) SeedSession(session *store.Session) int {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	entries, source := s.catalog.Snapshot()
	session.SeedDefault(entries, source)
	return len(entries)
}

func (s *knowledgeService) Health(ctx context.Context) dto.HealthResponse {
	_, source := s.catalog.Snapshot()
	res := dto.HealthResponse{
		Status:         "ok",
		DefaultSource:  source,
		DefaultCount:   s.catalog.Len(),
		ActiveSessions: s.sessions.Count(),
	}
	if at := s.catalog.LoadedAt(); !at.IsZero() {
		res.DefaultLoadedAt = lo.ToPtr(at.UTC().Truncate(time.Second))
	}
	return res
}

func (s *knowledgeService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("KnowledgeService", "Failed to publish event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
	}
}

func (s *knowledgeService) push(send func([]byte), frame map[string]interface{}) {
	if s.pusher == nil {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	send(data)
}
