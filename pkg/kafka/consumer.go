package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	applogger "QuantPanel/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer fetches from one reader per registered topic and fans messages
// out to a worker pool. Offsets are committed after the handler succeeds or
// the message has been parked on the DLQ.
type Consumer struct {
	cfg      *ConsumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	msgChan  chan kafka.Message
	dlq      *kafka.Writer
	l        *applogger.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	readWg   sync.WaitGroup
	workWg   sync.WaitGroup
	stopOnce sync.Once
}

func NewConsumer(l *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "quantpanel",
		StartOffset: "latest",
		WorkerCount: 2,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  100 * time.Millisecond,
		BackoffMax:  5 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if l == nil {
		l = applogger.Nop()
	}

	c := &Consumer{
		cfg:      cfg,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		msgChan:  make(chan kafka.Message, cfg.BufferSize),
		l:        l,
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	initConsumerMetrics()
	return c, nil
}

// RegisterHandler registers the handler for its topic; the first one wins.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	topic := h.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.l.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = h
}

// Start spawns readers and workers. It returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return errors.New("no handlers registered")
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	start := kafka.LastOffset
	if c.cfg.StartOffset == "earliest" {
		start = kafka.FirstOffset
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			Topic:       topic,
			GroupID:     c.cfg.GroupID,
			StartOffset: start,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWg.Add(1)
		go c.worker()
	}
	for topic, r := range c.readers {
		c.readWg.Add(1)
		go c.fetch(topic, r)
	}

	c.l.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
		applogger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop cancels fetching, drains the workers and closes readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()
		c.readWg.Wait()
		close(c.msgChan)

		done := make(chan struct{})
		go func() {
			c.workWg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				c.l.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
		c.l.Info("kafka consumer stopped")
	})
	return stopErr
}

func (c *Consumer) fetch(topic string, r *kafka.Reader) {
	defer c.readWg.Done()
	for {
		m, err := r.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.l.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			if !sleepCtx(c.ctx, time.Second) {
				return
			}
			continue
		}
		select {
		case c.msgChan <- m:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.workWg.Done()
	for m := range c.msgChan {
		c.process(m)
	}
}

func (c *Consumer) process(m kafka.Message) {
	h, ok := c.handlers[m.Topic]
	if !ok {
		return
	}
	start := time.Now()

	err := c.handleWithRetry(h, m)
	result := "ok"
	if err != nil {
		result = "error"
		c.l.Error("kafka message failed",
			applogger.String("topic", m.Topic),
			applogger.Int64("offset", m.Offset),
			applogger.Error(err),
		)
		if c.dlq != nil {
			result = "dlq"
			if derr := c.dlq.WriteMessages(context.Background(), kafka.Message{
				Topic:   c.cfg.DLQTopic,
				Key:     m.Key,
				Value:   m.Value,
				Headers: []kafka.Header{{Key: "source_topic", Value: []byte(m.Topic)}},
			}); derr != nil {
				c.l.Error("kafka dlq write failed", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(derr))
			}
		}
	}

	// Failed messages without a DLQ stay uncommitted and are redelivered
	// after a rebalance or restart.
	if err == nil || c.dlq != nil {
		if r := c.readers[m.Topic]; r != nil {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if cerr := r.CommitMessages(cctx, m); cerr != nil {
				c.l.Warn("kafka commit failed", applogger.String("topic", m.Topic), applogger.Error(cerr))
			}
			cancel()
		}
	}

	consumerHandled.WithLabelValues(m.Topic, result).Inc()
	consumerHandleLatency.WithLabelValues(m.Topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) handleWithRetry(h MessageHandler, m kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()

	for attempt := 1; ; attempt++ {
		err = h.Handle(c.ctx, m.Value)
		if err == nil || attempt > c.cfg.RetryMax || c.ctx.Err() != nil {
			return err
		}
		if !sleepCtx(c.ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)) {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoffWithJitter doubles min per attempt up to max, minus up to 50% jitter.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := max
	if attempt < 31 {
		if e := min * time.Duration(1<<uint(attempt-1)); e > 0 && e < max {
			exp = e
		}
	}
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandled       *prometheus.CounterVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerOnce          sync.Once
)

func initConsumerMetrics() {
	consumerOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "quantpanel_kafka_consumer_queue_depth", Help: "Messages waiting for a worker"},
			[]string{"topic"},
		)
		consumerHandled = promauto.NewCounterVec(
			prometheus.CounterOpts{Name: "quantpanel_kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "quantpanel_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
