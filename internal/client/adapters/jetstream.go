package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/nats-io/nats.go"
)

const (
	DefaultStream = "DEVCMS_EVENTS"
	SubjectPrefix = "devcms.events"
)

// Publisher is the part of nats.JetStreamContext used to publish.
type Publisher interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// StreamManager is the part of nats.JetStreamContext used to provision the
// stream.
type StreamManager interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// JetStreamAdapter publishes one message per event on
// devcms.events.<aggregateType>. The event id is sent as Nats-Msg-Id so the
// stream drops redeliveries inside its duplicate window.
type JetStreamAdapter struct {
	js     Publisher
	stream string
	close  func()
}

func NewJetStreamAdapter(js Publisher, stream string) *JetStreamAdapter {
	if stream == "" {
		stream = DefaultStream
	}
	return &JetStreamAdapter{js: js, stream: stream}
}

// ConnectJetStream dials url, makes sure the events stream exists and
// returns an adapter that owns the connection.
func ConnectJetStream(url, stream string) (*JetStreamAdapter, error) {
	conn, err := nats.Connect(url, nats.Name("devcms-client"))
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		_ = conn.Drain()
		conn.Close()
		return nil, err
	}
	a := NewJetStreamAdapter(js, stream)
	if err := EnsureStream(js, a.stream); err != nil {
		_ = conn.Drain()
		conn.Close()
		return nil, err
	}
	a.close = func() {
		_ = conn.Drain()
		conn.Close()
	}
	return a, nil
}

// EnsureStream creates the events stream if it does not exist yet.
func EnsureStream(sm StreamManager, stream string) error {
	_, err := sm.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = sm.AddStream(&nats.StreamConfig{
		Name:      stream,
		Subjects:  []string{SubjectPrefix + ".>"},
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		Replicas:  1,
	})
	return err
}

func (a *JetStreamAdapter) Close() {
	if a.close != nil {
		a.close()
	}
}

func (a *JetStreamAdapter) Name() string { return "NATS JetStream" }

func (a *JetStreamAdapter) Authenticate(context.Context) (bool, error) {
	return a.js != nil, nil
}

// Subject returns the subject an event is published on.
func Subject(ev models.Event) string {
	t := strings.ToLower(strings.TrimSpace(ev.AggregateType))
	t = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(t)
	if t == "" {
		t = "unknown"
	}
	return SubjectPrefix + "." + t
}

// SendBatch publishes events in order. An event whose publish is rejected
// is reported failed; a cancelled context aborts the batch.
func (a *JetStreamAdapter) SendBatch(ctx context.Context, events []models.Event) (syncengine.BatchResult, error) {
	var res syncengine.BatchResult
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return syncengine.BatchResult{}, err
		}
		data, err := json.Marshal(ev)
		if err != nil {
			res.Failed = append(res.Failed, ev.EventID)
			continue
		}
		msg := nats.NewMsg(Subject(ev))
		msg.Data = data
		msg.Header.Set("Devcms-Event-Type", ev.EventType)

		ack, err := a.js.PublishMsg(msg, nats.MsgId(ev.EventID), nats.Context(ctx))
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrNoResponders):
			return syncengine.BatchResult{}, fmt.Errorf("publish %s: %w", ev.EventID, err)
		case err != nil:
			res.Failed = append(res.Failed, ev.EventID)
		case ack == nil || (ack.Stream != "" && ack.Stream != a.stream):
			res.Failed = append(res.Failed, ev.EventID)
		default:
			res.Success = append(res.Success, ev.EventID)
		}
	}
	return res, nil
}
