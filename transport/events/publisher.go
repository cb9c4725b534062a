package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/pairs-game/game/engine"
)

// SubjectPrefix roots every subject the publisher writes to
const SubjectPrefix = "pairs"

// Event kinds, used as the last subject token
const (
	KindState    = "state"
	KindMatch    = string(engine.CelebrateMatch)
	KindComplete = string(engine.CelebrateComplete)
)

// Event is the JSON payload published for every notification
type Event struct {
	SessionID   string              `json:"session_id"`
	Kind        string              `json:"kind"`
	Timestamp   time.Time           `json:"timestamp"`
	State       *engine.GameState   `json:"state,omitempty"`
	Celebration *engine.Celebration `json:"celebration,omitempty"`
}

// Conn is the part of *nats.Conn the publisher needs
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher forwards game notifications to NATS. It implements
// service.Notifier.
type Publisher struct {
	conn Conn
	now  func() time.Time
}

// NewPublisher creates a publisher writing to conn
func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn, now: time.Now}
}

// Connect dials the NATS server at url
func Connect(url, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
	}
	return nats.Connect(url, opts...)
}

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// Subject returns pairs.<session>.<kind>. Session ids are lower-cased and
// stripped of NATS token separators and wildcards.
func Subject(sessionID, kind string) string {
	return SubjectPrefix + "." + subjectReplacer.Replace(strings.ToLower(sessionID)) + "." + kind
}

// StateChanged implements service.Notifier
func (p *Publisher) StateChanged(sessionID string, state *engine.GameState) {
	p.publish(Event{
		SessionID: sessionID,
		Kind:      KindState,
		Timestamp: p.now(),
		State:     state,
	})
}

// Celebrate implements service.Notifier
func (p *Publisher) Celebrate(sessionID string, celebration engine.Celebration) {
	p.publish(Event{
		SessionID:   sessionID,
		Kind:        string(celebration.Kind),
		Timestamp:   p.now(),
		Celebration: &celebration,
	})
}

func (p *Publisher) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("session", ev.SessionID).Msg("failed to marshal event")
		return
	}

	subject := Subject(ev.SessionID, ev.Kind)
	if err := p.conn.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// Watch subscribes to the events of one session, or of every session when
// sessionID is empty, and calls fn for each until ctx is done.
func Watch(ctx context.Context, nc *nats.Conn, sessionID string, fn func(subject string, ev Event)) error {
	subject := SubjectPrefix + ".>"
	if sessionID != "" {
		subject = SubjectPrefix + "." + subjectReplacer.Replace(strings.ToLower(sessionID)) + ".>"
	}

	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("skipping malformed event")
			return
		}
		fn(m.Subject, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}
