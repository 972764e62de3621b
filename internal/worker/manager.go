package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"videotube_backend/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second

	// DefaultMaxAttempts is how many times a failing delete is tried before the message is dropped
	DefaultMaxAttempts = 3
)

// Manager orchestrates worker goroutines that consume from Redis Streams.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	logger      *zap.Logger
	name        string
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	maxAttempts int
	retryDelay  time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
	MaxAttempts  int           // Handler attempts per message
	RetryDelay   time.Duration // Pause between attempts
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
		MaxAttempts:  DefaultMaxAttempts,
		RetryDelay:   time.Second,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler *Handler, logger *zap.Logger, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		logger:      logger,
		name:        host,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// Start begins the worker goroutines.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(consumerName(m.name, i))
	}

	m.logger.Info("cleanup workers started",
		zap.Int("workers", m.workerCount),
		zap.String("stream", queue.StreamMedia),
		zap.String("group", queue.ConsumerGroupMedia),
	)
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Info("cleanup workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(consumerName string) {
	defer m.wg.Done()

	// crash recovery: finish what this consumer left unacknowledged
	m.processPending(consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(consumerName)
		}
	}
}

// processPending handles messages that were delivered but not acknowledged.
func (m *Manager) processPending(consumerName string) {
	for m.ctx.Err() == nil {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia, consumerName, m.batchSize)
		if err != nil {
			m.logger.Warn("failed to read pending messages", zap.String("consumer", consumerName), zap.Error(err))
			return
		}
		if len(messages) == 0 {
			return
		}
		m.handleMessages(consumerName, messages)
	}
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(consumerName string) {
	messages, err := m.consumer.Read(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		m.logger.Warn("failed to read messages", zap.String("consumer", consumerName), zap.Error(err))
		m.sleep(time.Second) // back off
		return
	}

	m.handleMessages(consumerName, messages)
}

// handleMessages processes a batch of messages and acknowledges them.
func (m *Manager) handleMessages(consumerName string, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handleWithRetry(msg); err != nil {
			if m.ctx.Err() != nil {
				// shutting down: leave the rest pending for redelivery
				m.logger.Debug("stopping with unprocessed messages", zap.String("consumer", consumerName), zap.String("msg_id", msg.ID))
				return
			}
			// still acked: there is no dead-letter stream
			m.logger.Error("giving up on message",
				zap.String("consumer", consumerName),
				zap.String("msg_id", msg.ID),
				zap.String("type", msg.Event.Type),
				zap.Error(err),
			)
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamMedia, queue.ConsumerGroupMedia, msg.ID); err != nil {
			m.logger.Warn("failed to ack message", zap.String("msg_id", msg.ID), zap.Error(err))
		}
	}
}

func (m *Manager) handleWithRetry(msg queue.Message) error {
	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if err = m.handler.HandleEvent(m.ctx, msg.Event); err == nil {
			return nil
		}
		if attempt < m.maxAttempts && !m.sleep(m.retryDelay) {
			break
		}
	}
	return err
}

// sleep waits for d or until the manager stops; it reports false on stop.
func (m *Manager) sleep(d time.Duration) bool {
	if d <= 0 {
		return m.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-m.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// consumerName is stable across restarts on the same host, so a restarted
// worker picks up the messages its predecessor left pending.
func consumerName(process string, workerID int) string {
	return fmt.Sprintf("%s-worker-%d", process, workerID)
}
