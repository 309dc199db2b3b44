package queue

import (
    "context"
    "errors"
    "fmt"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body.  Returning nil acknowledges the
// message; any other error hands it back to the broker's redelivery.
type Handler func(ctx context.Context, body []byte) error

// ErrMalformed marks a message that can never be processed.  Handlers
// wrap decode failures with it so the consumer drops the message
// instead of requeueing it.
var ErrMalformed = errors.New("malformed message")

// Consumer consumes the registered queues with manual acks.  Messages
// may be delivered more than once; handlers must be idempotent.
type Consumer struct {
    url      string
    prefetch int
    handlers map[string]Handler
}

// NewConsumer returns a Consumer for the broker at url.  prefetch bounds
// the number of unacknowledged messages per channel.
func NewConsumer(url string, prefetch int) *Consumer {
    if prefetch <= 0 {
        prefetch = 50
    }
    return &Consumer{url: url, prefetch: prefetch, handlers: map[string]Handler{}}
}

// Handle registers h for the queue named kind.
func (c *Consumer) Handle(kind string, h Handler) {
    c.handlers[kind] = h
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are redialed with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    if len(c.handlers) == 0 {
        return errors.New("consumer: no handlers registered")
    }
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            log.Printf("task-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("task-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(c.prefetch, 0, false); err != nil {
        log.Printf("task-consumer: set QoS failed: %v", err)
    }

    var wg sync.WaitGroup
    errs := make(chan error, len(c.handlers))
    for kind, h := range c.handlers {
        if _, err := ch.QueueDeclare(kind, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", kind, err)
        }
        msgs, err := ch.Consume(kind, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", kind, err)
        }
        wg.Add(1)
        go func(kind string, h Handler, msgs <-chan amqp.Delivery) {
            defer wg.Done()
            for {
                select {
                case <-ctx.Done():
                    return
                case d, ok := <-msgs:
                    if !ok {
                        errs <- fmt.Errorf("%s deliveries channel closed", kind)
                        return
                    }
                    c.deliver(ctx, kind, h, d)
                }
            }
        }(kind, h, msgs)
    }

    select {
    case <-ctx.Done():
        _ = ch.Close()
        wg.Wait()
        return ctx.Err()
    case err := <-errs:
        _ = ch.Close()
        wg.Wait()
        return err
    }
}

func (c *Consumer) deliver(ctx context.Context, kind string, h Handler, d amqp.Delivery) {
    err := h(ctx, d.Body)
    ack, requeue := Disposition(err, d.Redelivered)
    if ack {
        _ = d.Ack(false)
        return
    }
    log.Printf("task-consumer: %s message %s failed (requeue=%t): %v", kind, d.MessageId, requeue, err)
    _ = d.Nack(false, requeue)
}

// Disposition decides how a delivery is settled after its handler ran.
// Successful messages are acked.  Malformed ones are dropped.  Other
// failures are requeued once; a message that fails again after a
// redelivery is dropped so it cannot loop forever.
func Disposition(err error, redelivered bool) (ack, requeue bool) {
    if err == nil {
        return true, false
    }
    if errors.Is(err, ErrMalformed) {
        return false, false
    }
    return false, !redelivered
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
