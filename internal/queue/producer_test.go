package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loancrm/internal/models"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestPublishConverted(t *testing.T) {
	ch := &fakeChannel{}
	p := NewProducer(ch)

	c := &models.Customer{ID: 9, LeadID: 42, Name: "Asha", NewStatus: models.CustomerStatusConverted}
	require.NoError(t, p.PublishConverted(context.Background(), c))

	assert.Equal(t, ExchangeName, ch.exchange)
	assert.Equal(t, RoutingKey, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var evt CustomerConvertedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &evt))
	assert.Equal(t, ch.msg.MessageId, evt.EventID)
	assert.Equal(t, int64(42), evt.Customer.LeadID)
	assert.Equal(t, "Converted", evt.Customer.NewStatus)
}

func TestPublishConvertedError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	err := NewProducer(ch).PublishConverted(context.Background(), &models.Customer{LeadID: 1})
	assert.ErrorContains(t, err, "channel closed")
}
