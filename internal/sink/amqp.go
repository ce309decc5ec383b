package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/kozaktomas/expression-tracker/internal/expression"
)

// RoutingKey is the routing key every expression message is published with.
const RoutingKey = "expressions"

// Message is the JSON body published for each set.
type Message struct {
	Expressions []string  `json:"expressions"`
	Labels      []string  `json:"labels"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessage builds the message for set.
func NewMessage(set expression.Set, labels *expression.Labeler, now time.Time) Message {
	return Message{
		Expressions: set.Strings(),
		Labels:      labels.Labels(set),
		Text:        labels.Join(set),
		Timestamp:   now.UTC(),
	}
}

// Publisher is the subset of *amqp.Channel the sink uses.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes every set to an exchange.
type AMQP struct {
	ch          Publisher
	conn        io.Closer
	exchange    string
	labels      *expression.Labeler
	onlyMatches bool
	log         *logrus.Entry
	now         func() time.Time
}

// AMQPOptions configures the AMQP sink.
type AMQPOptions struct {
	Exchange string
	// OnlyMatches skips frames in which nothing matched.
	OnlyMatches bool
	Labels      *expression.Labeler
	Logger      *logrus.Logger
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url string, opts AMQPOptions) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP server: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	if err := ch.ExchangeDeclare(opts.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", opts.Exchange, err)
	}

	s := NewAMQP(ch, opts)
	s.conn = conn
	return s, nil
}

// NewAMQP wraps an open channel.
func NewAMQP(ch Publisher, opts AMQPOptions) *AMQP {
	labels := opts.Labels
	if labels == nil {
		labels = expression.NewLabeler()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &AMQP{
		ch:          ch,
		exchange:    opts.Exchange,
		labels:      labels,
		onlyMatches: opts.OnlyMatches,
		log:         logger.WithFields(logrus.Fields{"sink": "amqp", "exchange": opts.Exchange}),
		now:         time.Now,
	}
}

// Publish sends set to the exchange.
func (s *AMQP) Publish(set expression.Set) error {
	body, err := json.Marshal(NewMessage(set, s.labels, s.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal expressions: %w", err)
	}
	err = s.ch.Publish(s.exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Transient,
		Timestamp:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish expressions: %w", err)
	}
	return nil
}

// Observe publishes set, logging failures. It is meant to be subscribed to a detector.
func (s *AMQP) Observe(set expression.Set) {
	if s.onlyMatches && len(set) == 0 {
		return
	}
	if err := s.Publish(set); err != nil {
		s.log.WithError(err).Warn("Dropping expressions")
	}
}

// Close closes the channel and, when the sink dialed it, the connection.
func (s *AMQP) Close() error {
	err := s.ch.Close()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
