// Package events publishes change notifications for other services.
// Publishing is best effort: failures are logged and never reach the caller.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	EntryCreated     = "entry.created"
	EntryUpdated     = "entry.updated"
	EntryDeleted     = "entry.deleted"
	DocumentUploaded = "document.uploaded"
	AnalysisCreated  = "studio.analysis.created"
	DraftSaved       = "studio.draft.saved"
	DraftFinalized   = "studio.draft.finalized"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any)
}

type nop struct{}

func (nop) Publish(context.Context, string, any) {}

func Nop() Publisher { return nop{} }

// Envelope is the JSON body of every message.
type Envelope struct {
	Subject string    `json:"subject"`
	At      time.Time `json:"at"`
	Data    any       `json:"data"`
}

type NATS struct {
	nc     *nats.Conn
	prefix string
	log    *zap.Logger
}

func Connect(url, prefix string, log *zap.Logger) (*NATS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("halokm"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATS{nc: nc, prefix: prefix, log: log.Named("events")}, nil
}

func (n *NATS) Subject(s string) string {
	if n.prefix == "" {
		return s
	}
	return n.prefix + "." + s
}

func (n *NATS) Publish(ctx context.Context, subject string, payload any) {
	full := n.Subject(subject)
	b, err := json.Marshal(Envelope{Subject: full, At: time.Now().UTC(), Data: payload})
	if err != nil {
		n.log.Warn("encode event", zap.String("subject", full), zap.Error(err))
		return
	}
	if err := n.nc.Publish(full, b); err != nil {
		n.log.Warn("publish event", zap.String("subject", full), zap.Error(err))
	}
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() {
	if n.nc == nil {
		return
	}
	_ = n.nc.Drain()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *Recorder) Publish(_ context.Context, subject string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Envelope{Subject: subject, At: time.Now().UTC(), Data: payload})
}

func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Subject
	}
	return out
}
