package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Client wraps Kafka operations.
type Client struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafkago.Writer
}

// NewClient returns a Client connected to the given brokers.
func NewClient(brokers []string) *Client {
	return &Client{brokers: brokers, writers: make(map[string]*kafkago.Writer)}
}

// EnsureTopics creates topics if they don't already exist (with retry).
func (c *Client) EnsureTopics(ctx context.Context, topics ...string) error {
	const attempts = 20
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := kafkago.DialContext(ctx, "tcp", c.brokers[0])
		if err != nil {
			log.Printf("[kafka] broker not ready, retrying in 3s (%d/%d)", attempt, attempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		configs := make([]kafkago.TopicConfig, len(topics))
		for i, t := range topics {
			configs[i] = kafkago.TopicConfig{
				Topic:             t,
				NumPartitions:     3,
				ReplicationFactor: 1,
			}
		}

		err = conn.CreateTopics(configs...)
		conn.Close()
		if err != nil {
			log.Printf("[kafka] topic creation returned (may already exist): %v", err)
		}
		log.Printf("[kafka] topics ensured: %v", topics)
		return nil
	}
	return fmt.Errorf("kafka: could not connect after %d attempts", attempts)
}

func (c *Client) writer(topic string) *kafkago.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.writers[topic]
	if !ok {
		w = &kafkago.Writer{
			Addr:     kafkago.TCP(c.brokers...),
			Topic:    topic,
			Balancer: &kafkago.Hash{},
		}
		c.writers[topic] = w
	}
	return w
}

// Publish sends a JSON-serialised message to a topic. Messages with the
// same key land on the same partition.
func (c *Client) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.writer(topic).WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: data,
	})
}

// Subscribe starts a background goroutine that reads from a topic until
// ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, topic, groupID string, handler func([]byte) error) {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  c.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	go func() {
		defer r.Close()
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[kafka] read error on %s: %v", topic, err)
				time.Sleep(time.Second)
				continue
			}
			if err := handler(msg.Value); err != nil {
				log.Printf("[kafka] handler error on %s: %v", topic, err)
			}
		}
	}()
}

// Close flushes and closes the cached writers.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for topic, w := range c.writers {
		if err := w.Close(); err != nil && first == nil {
			first = fmt.Errorf("kafka: close writer %s: %w", topic, err)
		}
		delete(c.writers, topic)
	}
	return first
}
