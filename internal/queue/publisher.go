package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "sync"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes JSON tasks to RabbitMQ.  It keeps one connection
// and channel open and redials lazily after the broker drops them.
// Publisher is safe for concurrent use.
type Publisher struct {
    url string

    mu       sync.Mutex
    conn     *amqp.Connection
    ch       *amqp.Channel
    declared map[string]bool
}

// NewPublisher returns a Publisher for the broker at url.  No connection
// is opened until the first Enqueue.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url, declared: map[string]bool{}}
}

// Enqueue publishes payload as a persistent message on the queue named
// kind.  Errors are logged and returned; a failed publish closes the
// channel so the next call redials.
func (p *Publisher) Enqueue(ctx context.Context, kind string, payload any) error {
    body, err := json.Marshal(payload)
    if err != nil {
        return fmt.Errorf("marshal %s task: %w", kind, err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        log.Printf("rabbitmq: connect failed: %v", err)
        return err
    }
    if !p.declared[kind] {
        // Durable so messages survive broker restarts.
        if _, err := ch.QueueDeclare(kind, true, false, false, false, nil); err != nil {
            p.reset()
            log.Printf("rabbitmq: queue declare %s failed: %v", kind, err)
            return fmt.Errorf("queue declare: %w", err)
        }
        p.declared[kind] = true
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    uuid.NewString(),
        Timestamp:    time.Now().UTC(),
        Type:         kind,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", kind, false, false, pub); err != nil {
        p.reset()
        log.Printf("rabbitmq: publish %s failed: %v", kind, err)
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// Close releases the connection.
func (p *Publisher) Close() {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
}

func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("rabbitmq dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq channel: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// reset must be called with mu held.
func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
    p.declared = map[string]bool{}
}
