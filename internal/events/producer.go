package events

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"tutor-service/internal/ws"

	"github.com/IBM/sarama"
)

// Producer publishes connection-lifecycle and chat events to Kafka for the
// analytics pipeline. Publishing is fire-and-forget from the caller's point
// of view: failures are logged, never surfaced.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a sync producer to the given brokers.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "tutor-service"

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: producer, topic: topic}, nil
}

type connectionRecord struct {
	Event     string    `json:"event"`
	UserID    uint      `json:"user_id"`
	Admin     bool      `json:"admin"`
	Last      bool      `json:"last,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type chatRecord struct {
	Event          string    `json:"event"`
	UserID         uint      `json:"user_id"`
	ConversationID uint      `json:"conversation_id"`
	Chars          int       `json:"chars"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConnectionEvent implements ws.EventSink. The hub calls sinks inline on
// session goroutines, so the blocking send happens off to the side.
func (p *Producer) ConnectionEvent(ev ws.ConnectionEvent) {
	// Supervisor refreshes are presence housekeeping, not analytics signal.
	if ev.Kind == "refresh" {
		return
	}
	go p.publish(ev.UserID, connectionRecord{
		Event:     "connection_" + ev.Kind,
		UserID:    ev.UserID,
		Admin:     ev.Admin,
		Last:      ev.Last,
		Timestamp: ev.At,
	})
}

// ChatExchanged records one completed user/tutor exchange. Only metadata is
// shipped; message content never leaves the database.
func (p *Producer) ChatExchanged(userID, conversationID uint, chars int) {
	p.publish(userID, chatRecord{
		Event:          "chat_exchanged",
		UserID:         userID,
		ConversationID: conversationID,
		Chars:          chars,
		Timestamp:      time.Now().UTC(),
	})
}

func (p *Producer) publish(userID uint, record any) {
	payload, err := json.Marshal(record)
	if err != nil {
		slog.Error("event marshal failed", "error", err)
		return
	}

	// Key by user so one user's events stay ordered within a partition.
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(userID), 10)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		slog.Warn("event publish failed", "topic", p.topic, "error", err)
	}
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
