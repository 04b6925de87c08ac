// Package mqtt connects the bot to an MQTT chat gateway. The gateway
// relays channel messages and membership changes onto MQTT topics and
// posts whatever the bot publishes on the out topic to the channel.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kilianp07/ptgbot/core/chat"
	coremon "github.com/kilianp07/ptgbot/core/monitoring"
	"github.com/kilianp07/ptgbot/core/schedule"
	"github.com/kilianp07/ptgbot/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// inbound is a channel message relayed by the gateway. Identified is false
// when the gateway could not confirm the sender owns the nick.
type inbound struct {
	Sender     string `json:"sender"`
	Channel    string `json:"channel"`
	Text       string `json:"text"`
	Identified bool   `json:"identified"`
}

type member struct {
	Channel   string `json:"channel"`
	Nick      string `json:"nick"`
	Privilege string `json:"privilege"`
	Left      bool   `json:"left"`
}

type outbound struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Bridge implements chat.Replier and chat.PrivilegeSource on top of the
// gateway topics and delivers inbound messages to a chat.Handler.
type Bridge struct {
	cli     pahoClient
	cfg     Config
	log     logger.Logger
	roster  *Roster
	limiter *rate.Limiter
	events  chan chat.Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewBridge connects to the broker. Subscriptions are (re)established on
// every connect.
func NewBridge(cfg Config) (*Bridge, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	limit := rate.Every(cfg.sendInterval())
	if cfg.SendIntervalMS < 0 {
		limit = rate.Inf
	}
	b := &Bridge{
		cfg:     cfg,
		log:     logger.New("mqtt_bridge"),
		roster:  NewRoster(),
		limiter: rate.NewLimiter(limit, cfg.SendBurst),
		events:  make(chan chat.Event, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	opts.OnConnect = func(c paho.Client) {
		b.log.Infof("MQTT connected")
		b.subscribe(c)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		b.log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		b.log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	b.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return b, nil
}

func (b *Bridge) topic(name string) string { return b.cfg.TopicPrefix + "/" + name }

func (b *Bridge) subscribe(c pahoClient) {
	subs := []struct {
		name string
		cb   paho.MessageHandler
	}{
		{"members", b.onMembers},
		{"in", b.onMessage},
	}
	for _, s := range subs {
		if token := c.Subscribe(b.topic(s.name), b.cfg.qos(s.name), s.cb); token.Wait() && token.Error() != nil {
			b.log.Errorf("subscribe %s: %v", b.topic(s.name), token.Error())
		}
	}
	if b.cfg.LWTTopic != "" {
		c.Publish(b.cfg.LWTTopic, b.cfg.LWTQoS, b.cfg.LWTRetain, "online")
	}
}

func (b *Bridge) onMessage(_ paho.Client, msg paho.Message) {
	var in inbound
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		b.log.Errorf("failed to decode message: %v", err)
		return
	}
	if !in.Identified {
		b.log.Debugf("ignoring message from unidentified %s", in.Sender)
		return
	}
	if in.Sender == "" || in.Channel == "" {
		b.log.Warnf("message without sender or channel dropped")
		return
	}
	select {
	case b.events <- chat.Event{Sender: in.Sender, Channel: in.Channel, Text: in.Text}:
	case <-b.done:
	}
}

func (b *Bridge) onMembers(_ paho.Client, msg paho.Message) {
	var m member
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		b.log.Errorf("failed to decode member update: %v", err)
		return
	}
	if m.Left {
		b.roster.Remove(m.Channel, m.Nick)
		return
	}
	p, err := chat.ParsePrivilege(m.Privilege)
	if err != nil {
		b.log.Warnf("member %s in %s: %v", m.Nick, m.Channel, err)
		return
	}
	b.roster.Set(m.Channel, m.Nick, p)
}

// Run hands inbound messages to h one at a time until ctx is canceled or
// the bridge is disconnected. A panicking handler is reported and the loop
// carries on with the next message.
func (b *Bridge) Run(ctx context.Context, h chat.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case ev := <-b.events:
			tags := map[string]string{"module": "mqtt", "channel": ev.Channel, "sender": ev.Sender}
			if err := coremon.Guard(tags, func() { h(ctx, ev) }); err != nil {
				b.log.Errorf("handling message from %s: %v", ev.Sender, err)
			}
		}
	}
}

// Send publishes one line for channel, waiting for the send pacing.
func (b *Bridge) Send(ctx context.Context, channel, line string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(outbound{
		ID:        uuid.NewString(),
		Channel:   channel,
		Text:      line,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := b.publish(b.topic("out"), b.cfg.qos("out"), false, payload); err != nil {
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "channel": channel})
		return err
	}
	return nil
}

// Privilege answers from the roster built from member updates.
func (b *Bridge) Privilege(ctx context.Context, channel, nick string) (chat.Privilege, error) {
	return b.roster.Privilege(ctx, channel, nick)
}

// Roster exposes the member roster.
func (b *Bridge) Roster() *Roster { return b.roster }

// PublishSchedule publishes snap as the retained schedule document.
func (b *Bridge) PublishSchedule(snap schedule.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return b.publish(b.topic("schedule"), b.cfg.qos("schedule"), true, payload)
}

func (b *Bridge) publish(topic string, qos byte, retained bool, payload []byte) error {
	backoff := time.Duration(b.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		token := b.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		b.log.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		if attempt < b.cfg.MaxRetries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Disconnect stops Run and gracefully closes the MQTT connection.
func (b *Bridge) Disconnect() {
	b.closeOnce.Do(func() {
		close(b.done)
		if b.cli != nil && b.cli.IsConnected() {
			b.cli.Disconnect(250)
		}
	})
}
