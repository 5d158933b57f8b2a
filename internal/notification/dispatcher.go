// Package notification fans element status changes out to the inbox of
// every interested user and, optionally, to their MQTT topic.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	domainNotification "precast-tracker/internal/domain/notification"
	domainUser "precast-tracker/internal/domain/user"
	"precast-tracker/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecipientLister finds the users an event concerns.
type RecipientLister interface {
	ListRecipients(ctx context.Context, companyID uuid.UUID) ([]*domainUser.User, error)
}

// Publisher is the push transport. pkg/mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

type Config struct {
	Workers     int
	BufferSize  int
	TopicPrefix string
	QoS         byte
	// Timeout bounds the storage and publish work for a single event.
	Timeout time.Duration
}

// Dispatcher is a fire-and-forget worker pool. Dispatch never blocks: when
// the queue is full the event is dropped and counted.
type Dispatcher struct {
	users     RecipientLister
	inbox     domainNotification.Repository
	publisher Publisher
	config    Config

	events chan domainNotification.StatusChangedEvent

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup

	metrics *MetricsTracker
}

// NewDispatcher builds a dispatcher. publisher may be nil when push is off.
func NewDispatcher(users RecipientLister, inbox domainNotification.Repository, publisher Publisher, config Config) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 64
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Dispatcher{
		users:     users,
		inbox:     inbox,
		publisher: publisher,
		config:    config,
		events:    make(chan domainNotification.StatusChangedEvent, config.BufferSize),
		metrics:   NewMetricsTracker(),
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	logger.Info("Notification dispatcher started",
		zap.Int("workers", d.config.Workers),
		zap.Int("buffer_size", d.config.BufferSize),
		zap.Bool("push_enabled", d.publisher != nil),
	)
}

// Stop refuses new events, drains the queue and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	d.wg.Wait()
	logger.Info("Notification dispatcher stopped")
}

// Dispatch enqueues an event without blocking.
func (d *Dispatcher) Dispatch(event domainNotification.StatusChangedEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher stopped")
		return
	}

	select {
	case d.events <- event:
		d.metrics.Update(func(m *DispatchMetrics) {
			m.EventsReceived++
			m.QueueDepth = len(d.events)
		})
	default:
		d.drop(event, "queue full")
	}
}

func (d *Dispatcher) Metrics() DispatchMetrics {
	return d.metrics.Snapshot()
}

func (d *Dispatcher) drop(event domainNotification.StatusChangedEvent, reason string) {
	logger.Warn("Notification dropped",
		zap.String("element_id", event.ElementID.String()),
		zap.String("reason", reason),
		zap.String("event", "notification_dropped"),
	)
	d.metrics.Update(func(m *DispatchMetrics) {
		m.EventsDropped++
	})
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for event := range d.events {
		d.metrics.Update(func(m *DispatchMetrics) {
			m.QueueDepth = len(d.events)
		})

		if err := d.deliver(event); err != nil {
			logger.Warn("Notification fan-out failed",
				zap.Int("worker", id),
				zap.String("element_id", event.ElementID.String()),
				zap.Error(err),
				zap.String("event", "notification_failed"),
			)
			d.metrics.Update(func(m *DispatchMetrics) {
				m.EventsFailed++
			})
			continue
		}

		d.metrics.Update(func(m *DispatchMetrics) {
			m.EventsDelivered++
			m.LastDeliveredAt = time.Now()
		})
	}
}

func (d *Dispatcher) deliver(event domainNotification.StatusChangedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	recipients, err := d.users.ListRecipients(ctx, event.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	title, body := render(event)
	rows := make([]*domainNotification.Notification, len(recipients))
	for i, u := range recipients {
		rows[i] = &domainNotification.Notification{
			RecipientID: u.ID,
			ElementID:   event.ElementID,
			ProjectID:   event.ProjectID,
			Title:       title,
			Body:        body,
			CreatedAt:   event.OccurredAt,
		}
	}
	if err := d.inbox.CreateMany(ctx, rows); err != nil {
		return err
	}
	d.metrics.Update(func(m *DispatchMetrics) {
		m.InboxRows += int64(len(rows))
	})

	if d.publisher != nil {
		d.publish(event, rows)
	}
	return nil
}

type pushMessage struct {
	NotificationID uuid.UUID                             `json:"notification_id"`
	Title          string                                `json:"title"`
	Body           string                                `json:"body"`
	Event          domainNotification.StatusChangedEvent `json:"event"`
}

// publish pushes each inbox row to its recipient. A failed publish is
// counted but does not fail the event: the inbox row already exists.
func (d *Dispatcher) publish(event domainNotification.StatusChangedEvent, rows []*domainNotification.Notification) {
	for _, n := range rows {
		payload, err := json.Marshal(pushMessage{
			NotificationID: n.ID,
			Title:          n.Title,
			Body:           n.Body,
			Event:          event,
		})
		if err != nil {
			continue
		}

		topic := Topic(d.config.TopicPrefix, n.RecipientID)
		if err := d.publisher.Publish(topic, d.config.QoS, false, payload); err != nil {
			logger.Warn("Notification publish failed",
				zap.String("topic", topic),
				zap.Error(err),
			)
			d.metrics.Update(func(m *DispatchMetrics) {
				m.PublishFailed++
			})
			continue
		}
		d.metrics.Update(func(m *DispatchMetrics) {
			m.Published++
		})
	}
}

// Topic is the per-user push topic.
func Topic(prefix string, userID uuid.UUID) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("users/%s/notifications", userID)
	}
	return fmt.Sprintf("%s/users/%s/notifications", prefix, userID)
}

func render(event domainNotification.StatusChangedEvent) (string, string) {
	name := event.ElementName
	if name == "" {
		name = event.ElementID.String()
	}
	title := fmt.Sprintf("%s is now %s", name, humanize(event.NewStatus))
	body := fmt.Sprintf("Element %s moved from %s to %s.", name, humanize(event.OldStatus), humanize(event.NewStatus))
	return title, body
}

func humanize(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
