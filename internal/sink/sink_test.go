package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/expression-tracker/internal/expression"
)

func TestConsole_Observe(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil, false)

	c.Observe(expression.Set{expression.MouthSmileLeft, expression.MouthSmileRight})
	c.Observe(expression.Set{})
	c.Observe(expression.Set{})

	assert.Equal(t, "Mouth Smile Left, Mouth Smile Right\n(neutral)\n(neutral)\n", buf.String())
	assert.Equal(t, 3, c.Lines())
}

func TestConsole_OnlyChanges(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil, true)

	for _, set := range []expression.Set{{}, {}, {expression.JawOpen}, {expression.JawOpen}, {}} {
		c.Observe(set)
	}

	assert.Equal(t, "(neutral)\nJaw Open\n(neutral)\n", buf.String())
}

type fakeChannel struct {
	published []amqp.Publishing
	exchange  string
	key       string
	err       error
	closed    bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewMessage(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := NewMessage(expression.Set{expression.TongueOut, expression.CheekPuff}, expression.NewLabeler(), now)

	assert.Equal(t, []string{"tongueOut", "cheekPuff"}, msg.Expressions)
	assert.Equal(t, []string{"Tongue Out", "Cheek Puff"}, msg.Labels)
	assert.Equal(t, "Tongue Out, Cheek Puff", msg.Text)
	assert.Equal(t, now, msg.Timestamp)
}

func TestAMQP_Observe(t *testing.T) {
	ch := &fakeChannel{}
	s := NewAMQP(ch, AMQPOptions{Exchange: "face"})

	s.Observe(expression.Set{expression.JawOpen})

	require.Len(t, ch.published, 1)
	assert.Equal(t, "face", ch.exchange)
	assert.Equal(t, RoutingKey, ch.key)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var msg Message
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &msg))
	assert.Equal(t, []string{"jawOpen"}, msg.Expressions)

	require.NoError(t, s.Close())
	assert.True(t, ch.closed)
}

func TestAMQP_OnlyMatches(t *testing.T) {
	ch := &fakeChannel{}
	s := NewAMQP(ch, AMQPOptions{Exchange: "face", OnlyMatches: true})

	s.Observe(expression.Set{})
	s.Observe(expression.Set{expression.EyeBlinkLeft})

	assert.Len(t, ch.published, 1)
}

func TestAMQP_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	s := NewAMQP(ch, AMQPOptions{Exchange: "face"})

	err := s.Publish(expression.Set{expression.JawOpen})
	require.Error(t, err)
	assert.ErrorIs(t, err, ch.err)
	assert.NotPanics(t, func() { s.Observe(expression.Set{expression.JawOpen}) })
}
