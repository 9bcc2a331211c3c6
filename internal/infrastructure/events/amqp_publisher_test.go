package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/events"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestPublisher_RoutingKeyPorTipo(t *testing.T) {
	ch := &fakeChannel{}
	pub := events.NewPublisher(ch, "inventory_ledger")
	price := decimal.RequireFromString("3.10")
	product := &entity.Product{ID: "p-1", ItemID: "PRD-GEN-2026-000001", CurrentStock: 4, ReorderLevel: 5}
	entry := &entity.LedgerEntry{
		ID: "e-1", ProductID: "p-1", Kind: entity.KindProcure, Quantity: 2, UnitPrice: &price,
		BalanceAfter: 4, PerformedBy: "u-1", PerformedByRole: entity.RoleUser,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, pub.PublishEntry(context.Background(), product, entry))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "inventory_ledger", ch.sent[0].exchange)
	assert.Equal(t, "ledger.procure", ch.sent[0].key)
	assert.Equal(t, amqp.Persistent, ch.sent[0].msg.DeliveryMode)

	var evt events.LedgerEvent
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &evt))
	assert.Equal(t, "PRD-GEN-2026-000001", evt.ItemID)
	assert.Equal(t, int64(4), evt.BalanceAfter)
	assert.True(t, evt.LowStock)
	require.NotNil(t, evt.UnitPrice)
	assert.True(t, price.Equal(*evt.UnitPrice))
}

func TestPublisher_ErrorDelCanal(t *testing.T) {
	pub := events.NewPublisher(&fakeChannel{err: errors.New("canal cerrado")}, "x")
	err := pub.PublishEntry(context.Background(), nil, &entity.LedgerEntry{ID: "e-1", Kind: entity.KindDistribute})
	assert.ErrorContains(t, err, "ledger.distribute")
}

func TestPublisher_BrokerReal(t *testing.T) {
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL no definido")
	}
	conn, pub, err := events.Dial(config.AMQPConfig{URL: url, Exchange: "inventory_ledger_test"})
	require.NoError(t, err)
	defer conn.Close()

	ch := conn.Channel()
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "ledger.*", "inventory_ledger_test", false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	entry := &entity.LedgerEntry{ID: "e-1", ProductID: "p-1", Kind: entity.KindAdjustment, Quantity: 3, CreatedAt: time.Now().UTC()}
	require.NoError(t, pub.PublishEntry(context.Background(), nil, entry))

	select {
	case d := <-deliveries:
		assert.Equal(t, "ledger.adjustment", d.RoutingKey)
		assert.Equal(t, "e-1", d.MessageId)
	case <-time.After(5 * time.Second):
		t.Fatal("no llegó el evento")
	}
}
