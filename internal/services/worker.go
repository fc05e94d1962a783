package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/repositories"
)

const DefaultSweepInterval = 10 * time.Second

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(jobID uuid.UUID)
}

type worker struct {
	jobRepo       repositories.JobRepository
	analyzer      AnalyzerService
	jobQueue      chan uuid.UUID
	concurrency   int
	sweepInterval time.Duration
	wg            sync.WaitGroup
	stopChan      chan struct{}
	stopOnce      sync.Once
}

func NewWorker(
	jobRepo repositories.JobRepository,
	analyzer AnalyzerService,
	concurrency int,
	sweepInterval time.Duration,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &worker{
		jobRepo:       jobRepo,
		analyzer:      analyzer,
		jobQueue:      make(chan uuid.UUID, 100),
		concurrency:   concurrency,
		sweepInterval: sweepInterval,
		stopChan:      make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	// Jobs queued while nobody was listening are picked up by the sweep.
	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		log.Println("✅ Worker stopped")
	})
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(jobID uuid.UUID) {
	select {
	case w.jobQueue <- jobID:
		log.Printf("📥 Job %s enqueued\n", jobID)
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue job %s\n", jobID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log.Printf("🚀 Worker %d started processing jobs\n", workerID)

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case <-ctx.Done():
			log.Printf("👷 Worker #%d stopped: %v\n", workerID, ctx.Err())
			return
		case jobID := <-w.jobQueue:
			log.Printf("👷 Worker #%d processing job %s\n", workerID, jobID)
			if err := w.analyzer.AnalyzeResume(ctx, jobID); err != nil {
				log.Printf("❌ Worker #%d failed to process job %s: %v\n", workerID, jobID, err)
			} else {
				log.Printf("✅ Worker #%d completed job %s\n", workerID, jobID)
			}
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	log.Println("🔄 Starting pending jobs poller")

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Pending jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.jobRepo.FindPendingJobs(10)
			if err != nil {
				log.Printf("⚠️  Failed to fetch pending jobs: %v\n", err)
				continue
			}

			if len(pendingJobs) > 0 {
				log.Printf("📋 Found %d pending jobs\n", len(pendingJobs))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
