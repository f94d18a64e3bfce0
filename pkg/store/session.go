package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"ai-learning-coach-be/pkg/coach"
	"ai-learning-coach-be/pkg/knowledge"

	"github.com/google/uuid"
)

// View is the screen a session is currently on.
type View string

const (
	ViewLanding    View = "landing"
	ViewAssessment View = "assessment"
	ViewChat       View = "chat"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Knowledge source prefixes. A session whose knowledge came from an upload is
// never re-seeded from the default catalog.
const (
	SourceDefaultPrefix = "default:"
	SourceUploadPrefix  = "upload:"
)

var ErrUnknownStyle = errors.New("unknown learning style")

func DefaultSource(location string) string { return SourceDefaultPrefix + location }
func UploadSource(filename string) string  { return SourceUploadPrefix + filename }

// ChatMessage is one line of the chat history.
type ChatMessage struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	Sender    Sender      `json:"sender"`
	Stage     coach.Stage `json:"stage,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID              string        `json:"id"`
	View            View          `json:"view"`
	LearningStyle   string        `json:"learning_style"`
	KnowledgeSource string        `json:"knowledge_source"`
	KnowledgeCount  int           `json:"knowledge_count"`
	History         []ChatMessage `json:"history"`
}

// Session represents one client's coaching state in memory. Every mutation
// holds mu, so concurrent handlers and delivery goroutines see a consistent
// view, style, knowledge base and history.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu              sync.Mutex
	view            View
	learningStyle   string
	knowledgeBase   []knowledge.Entry
	knowledgeSource string
	chatHistory     []ChatMessage

	// epoch advances on every reset; messages stamped with an older epoch
	// are discarded
	epoch uint64
}

// NewSession starts on the landing view with the given knowledge base.
func NewSession(id string, kb []knowledge.Entry, source string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if kb == nil {
		kb = []knowledge.Entry{}
	}
	return &Session{
		ID:              id,
		CreatedAt:       time.Now(),
		view:            ViewLanding,
		knowledgeBase:   kb,
		knowledgeSource: source,
		chatHistory:     []ChatMessage{},
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// LearningStyle is empty until an assessment completes.
func (s *Session) LearningStyle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.learningStyle
}

func (s *Session) KnowledgeSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knowledgeSource
}

func (s *Session) KnowledgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.knowledgeBase)
}

// KnowledgeBase returns a private copy of the entries.
func (s *Session) KnowledgeBase() []knowledge.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return knowledge.Clone(s.knowledgeBase)
}

// QueryContext returns what a query is answered against: the style, the
// knowledge base and the current epoch, read together. The returned slice is
// shared and must not be modified; loads replace it wholesale.
func (s *Session) QueryContext() (style string, kb []knowledge.Entry, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.learningStyle, s.knowledgeBase, s.epoch
}

func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Session) History() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatMessage{}, s.chatHistory...)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:              s.ID,
		View:            s.view,
		LearningStyle:   s.learningStyle,
		KnowledgeSource: s.knowledgeSource,
		KnowledgeCount:  len(s.knowledgeBase),
		History:         append([]ChatMessage{}, s.chatHistory...),
	}
}

// StartAssessment moves to the assessment view from any view.
func (s *Session) StartAssessment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = ViewAssessment
}

// CompleteAssessment records the chosen style, announces it in the chat and
// moves to the chat view.
func (s *Session) CompleteAssessment(style string) (ChatMessage, error) {
	if !coach.IsLearningStyle(style) {
		return ChatMessage{}, ErrUnknownStyle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.learningStyle = style
	msg := s.appendLocked(ChatMessage{
		Text:   coach.AssessmentCompleted(style),
		Sender: SenderBot,
	})
	s.view = ViewChat
	return msg, nil
}

// Reset returns to the landing view and clears style and history. The
// knowledge base is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = ViewLanding
	s.learningStyle = ""
	s.chatHistory = []ChatMessage{}
	s.epoch++
}

// ReplaceKnowledgeBase swaps the whole knowledge base; entries are never merged.
func (s *Session) ReplaceKnowledgeBase(entries []knowledge.Entry, source string) {
	if entries == nil {
		entries = []knowledge.Entry{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.knowledgeBase = entries
	s.knowledgeSource = source
}

// SeedDefault replaces the knowledge base with default entries unless the
// session already holds an uploaded one. It reports whether it replaced.
func (s *Session) SeedDefault(entries []knowledge.Entry, source string) bool {
	if entries == nil {
		entries = []knowledge.Entry{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.HasPrefix(s.knowledgeSource, SourceUploadPrefix) {
		return false
	}
	s.knowledgeBase = entries
	s.knowledgeSource = source
	return true
}

// AppendMessage adds msg to the history, filling ID and CreatedAt when unset.
func (s *Session) AppendMessage(msg ChatMessage) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(msg)
}

// AppendMessageAt appends only while the session is still at epoch.
func (s *Session) AppendMessageAt(epoch uint64, msg ChatMessage) (ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ChatMessage{}, false
	}
	return s.appendLocked(msg), true
}

func (s *Session) appendLocked(msg ChatMessage) ChatMessage {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.chatHistory = append(s.chatHistory, msg)
	return msg
}
