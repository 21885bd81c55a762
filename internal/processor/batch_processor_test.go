package processor

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"proptrack/server/config"
	"proptrack/server/internal/models"
	"proptrack/server/internal/queue"
)

// MockDB is a mock implementation of the Transactor interface
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error {
	args := m.Called(fc)
	return args.Error(0)
}

func TestNewBatchProcessor(t *testing.T) {
	mockDB := &MockDB{}
	logger := logrus.New()
	mockQueue := queue.NewSaleQueue(10, logger)
	cfg := &config.Config{}
	cfg.BatchProcessing.ProcessorCount = 2
	cfg.BatchProcessing.MaxRetries = 3

	processor := NewBatchProcessor(mockDB, mockQueue, cfg, logger)

	assert.NotNil(t, processor)
	assert.Equal(t, mockDB, processor.db)
	assert.Equal(t, mockQueue, processor.queue)
	assert.Equal(t, cfg, processor.config)
	assert.Equal(t, logger, processor.logger)
}

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	mockDB := &MockDB{}
	logger := logrus.New()
	mockQueue := queue.NewSaleQueue(10, logger)
	cfg := &config.Config{}
	cfg.BatchProcessing.ProcessorCount = 2
	cfg.BatchProcessing.MaxRetries = 2
	cfg.BatchProcessing.RetryDelay = 0

	processor := NewBatchProcessor(mockDB, mockQueue, cfg, logger)

	batch := []*models.Sale{
		{DealingNumber: "AQ111", Suburb: "Revesby", PurchasePrice: 1_200_000},
		{DealingNumber: "AQ222", Suburb: "Revesby", PurchasePrice: 1_350_000},
	}

	// Successful processing on the first attempt
	mockDB.On("Transaction", mock.Anything).Return(nil).Once()
	err := processor.processBatch(batch)
	assert.NoError(t, err)

	// Every attempt fails: initial try plus MaxRetries retries
	mockDB.On("Transaction", mock.Anything).Return(errors.New("db error")).Times(3)
	err = processor.processBatch(batch)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch after 2 attempts")

	mockDB.AssertExpectations(t)
}

func TestBatchProcessor_StartStop(t *testing.T) {
	mockDB := &MockDB{}
	logger := logrus.New()
	mockQueue := queue.NewSaleQueue(10, logger)
	cfg := &config.Config{}
	cfg.BatchProcessing.ProcessorCount = 2

	processor := NewBatchProcessor(mockDB, mockQueue, cfg, logger)

	processor.Start()
	time.Sleep(100 * time.Millisecond) // Give time for goroutines to start

	processor.Stop()
	mockQueue.Close()
	assert.True(t, mockQueue.IsClosed())
}
