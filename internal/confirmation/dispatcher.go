package confirmation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	confirmationDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/confirmation"
)

type Job struct {
	Confirmation *confirmationDatamodel.PurchaseConfirmation
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing confirmation", "worker_id", w.ID, "confirmation_id", job.Confirmation.ID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	MaxWorkers   int
	JobQueueSize int
	BatchSize    int
	PollInterval time.Duration
	SendTimeout  time.Duration
}

// Dispatcher polls pending confirmations and fans them out to a worker pool.
// A confirmation is never queued twice while a worker still holds it.
type Dispatcher struct {
	repo   RepositoryAPI
	sender Sender
	logger *slog.Logger

	batchSize    int
	pollInterval time.Duration
	sendTimeout  time.Duration

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	inflight   sync.Map
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(repo RepositoryAPI, sender Sender, config Config, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}

	return &Dispatcher{
		repo:         repo,
		sender:       sender,
		logger:       logger,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		sendTimeout:  sendTimeout,
		maxWorkers:   maxWorkers,
		jobQueue:     make(chan Job, jobQueueSize),
		workerPool:   make(chan chan Job, maxWorkers),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the workers, the dispatch loop and the poll loop.
func (d *Dispatcher) Start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(2)
		go d.dispatch()
		go d.pollLoop()

		d.logger.Info("confirmation dispatcher started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue),
			"batch_size", d.batchSize,
			"poll_interval", d.pollInterval)
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:
				case <-d.ctx.Done():
					d.logger.Info("dispatcher shutting down")
					return
				}
			case <-d.ctx.Done():
				d.logger.Info("dispatcher shutting down")
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("dispatcher shutting down")
			return
		}
	}
}

func (d *Dispatcher) pollLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.Poll(d.ctx); err != nil && d.ctx.Err() == nil {
			d.logger.Error("failed to poll pending confirmations", "error", err)
		}

		select {
		case <-ticker.C:
		case <-d.ctx.Done():
			return
		}
	}
}

// Poll queues one batch of pending confirmations and reports how many were queued.
func (d *Dispatcher) Poll(ctx context.Context) (int, error) {
	pending, err := d.repo.ListPending(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, c := range pending {
		if _, busy := d.inflight.LoadOrStore(c.ID, struct{}{}); busy {
			continue
		}

		select {
		case d.jobQueue <- Job{Confirmation: c}:
			queued++
		case <-ctx.Done():
			d.inflight.Delete(c.ID)
			return queued, ctx.Err()
		}
	}

	if queued > 0 {
		d.logger.Debug("queued pending confirmations", "count", queued)
	}
	return queued, nil
}

func (d *Dispatcher) process(job Job) {
	c := job.Confirmation
	defer d.inflight.Delete(c.ID)

	ctx, cancel := context.WithTimeout(d.ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.SendConfirmation(ctx, c); err != nil {
		d.logger.Warn("confirmation delivery failed",
			"error", err,
			"confirmation_id", c.ID,
			"order_id", c.OrderID,
			"attempt", c.Attempts+1)
		d.markFailed(c.ID, err.Error())
		return
	}

	if err := d.repo.MarkSent(context.WithoutCancel(ctx), c.ID, time.Now()); err != nil {
		d.logger.Error("failed to mark confirmation as sent", "error", err, "confirmation_id", c.ID)
		return
	}

	d.logger.Info("confirmation dispatched", "confirmation_id", c.ID, "order_id", c.OrderID)
}

func (d *Dispatcher) markFailed(id uuid.UUID, reason string) {
	if err := d.repo.MarkFailed(context.Background(), id, reason, MaxAttempts); err != nil {
		d.logger.Error("failed to record confirmation failure", "error", err, "confirmation_id", id)
	}
}

func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down confirmation dispatcher")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("confirmation dispatcher shutdown complete")
}
