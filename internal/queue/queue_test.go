package queue

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("service", "test")
}

func TestPublishDeliversJSONPayload(t *testing.T) {
	q := NewInMemoryQueue(testLogger())

	received := make(chan GenerationJob, 1)
	require.NoError(t, q.Subscribe(TopicPostGeneration, func(body []byte) error {
		var job GenerationJob
		if err := json.Unmarshal(body, &job); err != nil {
			return err
		}
		received <- job
		return nil
	}))

	job := GenerationJob{CampaignID: 7, PublishDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, q.Publish(TopicPostGeneration, job))

	select {
	case got := <-received:
		assert.Equal(t, job.CampaignID, got.CampaignID)
		assert.True(t, job.PublishDate.Equal(got.PublishDate))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not delivered")
	}
}

func TestPublishWithoutSubscribersFails(t *testing.T) {
	q := NewInMemoryQueue(testLogger())
	err := q.Publish("nobody_listens", GenerationJob{CampaignID: 1})
	assert.Error(t, err)
}

func TestFailingHandlerIsRetried(t *testing.T) {
	q := NewInMemoryQueue(testLogger())

	var attempts int32
	done := make(chan struct{})
	require.NoError(t, q.Subscribe(TopicPostGeneration, func(body []byte) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))

	require.NoError(t, q.Publish(TopicPostGeneration, GenerationJob{CampaignID: 1}))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	case <-time.After(5 * time.Second):
		t.Fatal("handler never succeeded")
	}
}

func TestPermanentFailureStopsAfterMaxRetries(t *testing.T) {
	q := NewInMemoryQueue(testLogger())

	var attempts int32
	require.NoError(t, q.Subscribe(TopicPostGeneration, func(body []byte) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("always broken")
	}))

	require.NoError(t, q.Publish(TopicPostGeneration, GenerationJob{CampaignID: 1}))

	// 1 initial attempt + 3 retries with up to 1.5s of backoff between them.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) == 4
	}, 10*time.Second, 100*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(4), atomic.LoadInt32(&attempts), "no attempts beyond the retry limit")
}

func TestPublishWithDelayWaits(t *testing.T) {
	q := NewInMemoryQueue(testLogger())

	var mu sync.Mutex
	var deliveredAt time.Time
	done := make(chan struct{})
	require.NoError(t, q.Subscribe(TopicPostGeneration, func(body []byte) error {
		mu.Lock()
		deliveredAt = time.Now()
		mu.Unlock()
		close(done)
		return nil
	}))

	start := time.Now()
	require.NoError(t, q.PublishWithDelay(TopicPostGeneration, GenerationJob{CampaignID: 1}, 150*time.Millisecond))

	select {
	case <-done:
		mu.Lock()
		elapsed := deliveredAt.Sub(start)
		mu.Unlock()
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	case <-time.After(3 * time.Second):
		t.Fatal("delayed job was not delivered")
	}
}

func TestPublishWithZeroDelayDeliversImmediately(t *testing.T) {
	q := NewInMemoryQueue(testLogger())

	done := make(chan struct{})
	require.NoError(t, q.Subscribe(TopicPostGeneration, func(body []byte) error {
		close(done)
		return nil
	}))

	require.NoError(t, q.PublishWithDelay(TopicPostGeneration, GenerationJob{CampaignID: 1}, 0))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not delivered")
	}
}

func TestStartPostGenerationSubscriberDropsPoisonMessages(t *testing.T) {
	q := NewInMemoryQueue(testLogger())

	var calls int32
	StartPostGenerationSubscriber(q, testLogger(), func(job GenerationJob) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	// Subscribe runs on a goroutine; wait for the handler to be registered.
	require.Eventually(t, func() bool {
		return q.Publish(TopicPostGeneration, json.RawMessage(`"not an object"`)) == nil
	}, 2*time.Second, 10*time.Millisecond)

	// The malformed payload is dropped without retries, so a valid job
	// published right after still comes through exactly once.
	require.NoError(t, q.Publish(TopicPostGeneration, GenerationJob{CampaignID: 9}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
