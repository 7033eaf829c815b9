package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const maxDeliveryAttempts = 3

// AMQPQueue backs the Queue interface with RabbitMQ. Delivery is
// at-least-once; on handler failure the consumer republishes the message
// through the delay queue with an incremented x-retry-count header, so the
// retry bound survives redelivery. Messages are dropped once the count
// reaches maxDeliveryAttempts.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *logrus.Entry
}

func NewAMQPQueue(url string, log *logrus.Entry) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPQueue{conn: conn, ch: ch, log: log}, nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) error {
	_, err := q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

// declareDelay sets up the per-topic parking queue whose dead-letter target
// is the work queue. Messages published here with a TTL land back on the
// work queue when the TTL expires.
func (q *AMQPQueue) declareDelay(topic string) (string, error) {
	delayQueue := topic + ".delay"
	_, err := q.ch.QueueDeclare(
		delayQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": topic,
		},
	)
	return delayQueue, err
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	if err := q.declare(topic); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// PublishWithDelay parks the message in the delay queue; message TTL is the
// delay. RabbitMQ routes the expired message to the work queue at the eta.
func (q *AMQPQueue) PublishWithDelay(topic string, payload any, delay time.Duration) error {
	if delay <= 0 {
		return q.Publish(topic, payload)
	}

	if err := q.declare(topic); err != nil {
		return err
	}

	delayQueue, err := q.declareDelay(topic)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return q.ch.Publish("", delayQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Expiration:   fmt.Sprintf("%d", delay.Milliseconds()),
		Body:         body,
	})
}

func (q *AMQPQueue) Subscribe(topic string, handler func(body []byte) error) error {
	if err := q.declare(topic); err != nil {
		return err
	}

	delayQueue, err := q.declareDelay(topic)
	if err != nil {
		return err
	}

	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck off for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				attempt := retriesSoFar(d.Headers) + 1
				if attempt <= maxDeliveryAttempts {
					q.log.Warnf("⚠️ job on %s failed (retry %d/%d): %v", topic, attempt, maxDeliveryAttempts, err)
					// Republish through the delay queue so the incremented
					// retry count sticks; a broker Nack-requeue would keep
					// the original headers and never hit the bound.
					if pubErr := q.ch.Publish("", delayQueue, false, false, retryPublishing(d.Body, attempt)); pubErr != nil {
						q.log.Errorf("failed to requeue job on %s: %v", topic, pubErr)
						d.Nack(false, true)
						continue
					}
				} else {
					q.log.Errorf("job on %s permanently failed after %d retries: %v", topic, maxDeliveryAttempts, err)
				}
			}
			d.Ack(false)
		}
	}()

	return nil
}

// retryPublishing builds the republish message for a failed delivery: the
// retry count travels in the x-retry-count header and the TTL applies the
// same linear backoff as the in-memory queue.
func retryPublishing(body []byte, attempt int) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Expiration:   fmt.Sprintf("%d", retryBackoff(attempt).Milliseconds()),
		Headers:      amqp.Table{"x-retry-count": int32(attempt)},
		Body:         body,
	}
}

func retryBackoff(attempt int) time.Duration {
	return time.Duration(attempt*500) * time.Millisecond
}

func retriesSoFar(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

var _ Queue = (*AMQPQueue)(nil)
