// Package queue carries the manual "send now" pipeline: the HTTP API
// publishes a send job, cmd/worker consumes it and runs the dispatch. The
// scheduled engine does not go through here.
package queue

import (
	"fmt"
	"sync"
)

// SendJob asks the worker to dispatch one campaign outside its schedule.
type SendJob struct {
	CampaignID int `json:"campaign_id"`
}

// Queue decouples job producers from consumers.
type Queue interface {
	Publish(topic string, job SendJob) error
	Subscribe(topic string, handler func(job SendJob) error) error
}

// InMemoryQueue is a process-local queue for development and tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(job SendJob) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(job SendJob) error),
	}
}

// Publish hands the job to every subscriber of the topic.
func (q *InMemoryQueue) Publish(topic string, job SendJob) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}
	for _, handler := range handlers {
		go handler(job)
	}
	return nil
}

// Subscribe registers a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(job SendJob) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
