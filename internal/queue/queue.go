package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"proptrack/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// SaleQueue represents an in-memory queue for sale record batches
type SaleQueue struct {
	items    chan []*models.Sale
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]*models.Sale) error
}

// NewSaleQueue creates a new sale queue with the specified buffer size
func NewSaleQueue(bufferSize int, logger *logrus.Logger) *SaleQueue {
	return &SaleQueue{
		items:    make(chan []*models.Sale, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]*models.Sale) error, 0),
	}
}

// Push adds a batch of sales to the queue
func (q *SaleQueue) Push(sales []*models.Sale) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	// Non-blocking send to prevent deadlocks
	select {
	case q.items <- sales:
		q.logger.WithField("batch_size", len(sales)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *SaleQueue) Subscribe(handler func([]*models.Sale) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *SaleQueue) Start() {
	go q.process()
}

func (q *SaleQueue) process() {
	for {
		select {
		case <-q.done:
			return
		case batch := <-q.items:
			q.processBatch(batch)
		}
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *SaleQueue) processBatch(batch []*models.Sale) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close stops the queue and prevents new items from being added
func (q *SaleQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.done)
	close(q.items)
	return nil
}

// Len returns the current number of batches in the queue
func (q *SaleQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *SaleQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
