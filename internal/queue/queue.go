package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Topic for single-post generation jobs
const TopicPostGeneration = "post_generation"

// GenerationJob is the payload for a single-post generation task.
type GenerationJob struct {
	CampaignID  int       `json:"campaign_id"`
	PublishDate time.Time `json:"publish_date"`
}

// Queue interface. Payloads are JSON-encoded before delivery so the
// in-memory and AMQP implementations behave the same.
type Queue interface {
	Publish(topic string, payload any) error
	PublishWithDelay(topic string, payload any, delay time.Duration) error
	Subscribe(topic string, handler func(body []byte) error) error
}

// InMemoryQueue is an in-process queue with retry, used for single-binary
// runs and tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(body []byte) error
	log      *logrus.Entry
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log *logrus.Entry) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(body []byte) error),
		log:      log,
	}
}

// jobEnvelope wraps a message body with retry info
type jobEnvelope struct {
	Body       []byte
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	job := jobEnvelope{
		Body:       body,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, job)
	}

	return nil
}

// PublishWithDelay delivers the message after the given delay (eta).
func (q *InMemoryQueue) PublishWithDelay(topic string, payload any, delay time.Duration) error {
	if delay <= 0 {
		return q.Publish(topic, payload)
	}
	time.AfterFunc(delay, func() {
		if err := q.Publish(topic, payload); err != nil {
			q.log.Warnf("⚠️ delayed publish to %s failed: %v", topic, err)
		}
	})
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(topic string, handler func(body []byte) error, job jobEnvelope) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Body)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		q.log.Warnf("⚠️ job on %s failed (attempt %d/%d): %v", topic, job.RetryCount, job.MaxRetries, err)

		if job.RetryCount > job.MaxRetries {
			q.log.Errorf("job on %s permanently failed after %d attempts", topic, job.MaxRetries)
			return // No requeue
		}

		// Backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(body []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)

// StartPostGenerationSubscriber wires the generation handler to the queue.
// generate is called once per job; a non-nil return triggers the queue's
// retry policy.
func StartPostGenerationSubscriber(q Queue, log *logrus.Entry, generate func(job GenerationJob) error) {
	go func() {
		err := q.Subscribe(TopicPostGeneration, func(body []byte) error {
			var job GenerationJob
			if err := json.Unmarshal(body, &job); err != nil {
				log.Warnf("⚠️ invalid generation job payload: %v", err)
				return nil // poison message, do not retry
			}

			log.Infof("📩 processing generation job for campaign %d", job.CampaignID)
			return generate(job)
		})
		if err != nil {
			log.Warnf("⚠️ failed to start subscriber for %s: %v", TopicPostGeneration, err)
		}
	}()
}
