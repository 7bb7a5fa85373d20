package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailflow-io/mailflow/internal/queue"
)

func TestInMemoryQueuePublishSubscribe(t *testing.T) {
	q := queue.NewInMemoryQueue()

	got := make(chan queue.SendJob, 1)
	require.NoError(t, q.Subscribe("mailing_sends", func(job queue.SendJob) error {
		got <- job
		return nil
	}))

	require.NoError(t, q.Publish("mailing_sends", queue.SendJob{CampaignID: 42}))

	select {
	case job := <-got:
		assert.Equal(t, 42, job.CampaignID)
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestInMemoryQueuePublishWithoutSubscriber(t *testing.T) {
	q := queue.NewInMemoryQueue()

	err := q.Publish("mailing_sends", queue.SendJob{CampaignID: 1})
	assert.Error(t, err)
}

func TestInMemoryQueueTopicsAreIsolated(t *testing.T) {
	q := queue.NewInMemoryQueue()

	got := make(chan queue.SendJob, 1)
	require.NoError(t, q.Subscribe("other_topic", func(job queue.SendJob) error {
		got <- job
		return nil
	}))

	// no subscriber on this topic
	assert.Error(t, q.Publish("mailing_sends", queue.SendJob{CampaignID: 1}))

	select {
	case <-got:
		t.Fatal("handler on another topic must not fire")
	case <-time.After(50 * time.Millisecond):
	}
}
