package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

var _ inventory.EventPublisher = (*Publisher)(nil)

// LedgerEvent mensaje publicado por cada entrada confirmada del ledger.
type LedgerEvent struct {
	EntryID         string           `json:"entry_id"`
	ProductID       string           `json:"product_id"`
	ItemID          string           `json:"item_id"`
	Kind            string           `json:"kind"`
	Quantity        int64            `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	BalanceAfter    int64            `json:"balance_after"`
	WarehouseCode   string           `json:"warehouse_code,omitempty"`
	PerformedBy     string           `json:"performed_by"`
	PerformedByRole string           `json:"performed_by_role"`
	LowStock        bool             `json:"low_stock"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Channel lo que el publicador usa de *amqp.Channel.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher publica eventos del ledger en un exchange topic con routing key ledger.<kind>.
type Publisher struct {
	mu       sync.Mutex // un amqp.Channel no admite publicaciones concurrentes
	ch       Channel
	exchange string
}

// NewPublisher construye el publicador sobre un canal abierto.
func NewPublisher(ch Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// RoutingKey clave de ruteo de una entrada: ledger.procure, ledger.distribute o ledger.adjustment.
func RoutingKey(kind entity.LedgerKind) string {
	return "ledger." + string(kind)
}

// PublishEntry serializa la entrada y la publica como mensaje persistente.
func (p *Publisher) PublishEntry(ctx context.Context, product *entity.Product, e *entity.LedgerEntry) error {
	evt := LedgerEvent{
		EntryID:         e.ID,
		ProductID:       e.ProductID,
		Kind:            string(e.Kind),
		Quantity:        e.Quantity,
		UnitPrice:       e.UnitPrice,
		BalanceAfter:    e.BalanceAfter,
		WarehouseCode:   e.WarehouseCode,
		PerformedBy:     e.PerformedBy,
		PerformedByRole: e.PerformedByRole,
		CreatedAt:       e.CreatedAt,
	}
	if product != nil {
		evt.ItemID = product.ItemID
		evt.LowStock = product.CurrentStock <= product.ReorderLevel
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("could not marshal ledger event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(e.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKey(e.Kind), err)
	}
	return nil
}

// Connection conexión y canal del broker. Close libera ambos.
type Connection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial conecta al broker, abre un canal y declara el exchange topic durable.
func Dial(cfg config.AMQPConfig) (*Connection, *Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return &Connection{conn: conn, ch: ch}, NewPublisher(ch, cfg.Exchange), nil
}

// Channel canal abierto (tests de integración y consumidores auxiliares).
func (c *Connection) Channel() *amqp.Channel { return c.ch }

// Close cierra canal y conexión.
func (c *Connection) Close() error {
	_ = c.ch.Close()
	return c.conn.Close()
}
