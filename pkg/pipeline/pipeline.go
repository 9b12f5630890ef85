// Package pipeline is the Pipeline Controller: a real-time buffer with
// threshold-triggered draining, staggered boot-time scheduled enqueues, and
// a worker loop that claims tasks off the durable priority queue and runs
// them through the pattern/insight/outcome packages.
package pipeline

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devmemory/learning-engine/internal/config"
	"github.com/devmemory/learning-engine/pkg/embedding"
	"github.com/devmemory/learning-engine/pkg/llm"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/shared/logging"
	"github.com/devmemory/learning-engine/pkg/store"
)

// patternSweepWindowDays bounds the global (non-payload-scoped)
// pattern_detection handler's memory lookback.
const patternSweepWindowDays = 7

// scheduledOffsets pairs each recurring task type with the fixed boot-time
// stagger and priority spec §4.1 "Scheduled path at init" specifies.
var scheduledOffsets = []struct {
	taskType store.TaskType
	priority store.TaskPriority
	offset   time.Duration
}{
	{store.TaskPatternDetection, store.PriorityPatternDetection, 0},
	{store.TaskInsightGeneration, store.PriorityInsightGeneration, time.Hour},
	{store.TaskPreferenceAnalysis, store.PriorityPreferenceAnalysis, 2 * time.Hour},
	{store.TaskEvolutionTracking, store.PriorityEvolutionTracking, 3 * time.Hour},
}

// BufferedMemory is one real-time ingest event waiting in the controller's
// in-process buffer (spec §4.1 "Append {id, project_id, content, ts}").
type BufferedMemory struct {
	MemoryID    int64
	ProjectID   int64
	ProjectName string
	Content     string
	MemoryType  store.MemoryType
	OccurredAt  time.Time
}

// Controller is the Pipeline Controller: owns the real-time buffer, the
// scheduled boot-time enqueue, and the worker loop.
type Controller struct {
	st        *store.Pool
	emb       *embedding.Client
	llmClient *llm.Client
	cfg       config.PipelineConfig
	logger    *logrus.Logger
	lock      DistributedLock

	mu           sync.Mutex
	buffer       []BufferedMemory
	isProcessing bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewController wires a Controller. logger may be nil (a discard logger is
// substituted); lock may be nil (the single-flight guard is then purely
// process-local).
func NewController(st *store.Pool, emb *embedding.Client, llmClient *llm.Client, cfg config.PipelineConfig, logger *logrus.Logger, lock DistributedLock) *Controller {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Controller{
		st:        st,
		emb:       emb,
		llmClient: llmClient,
		cfg:       cfg,
		logger:    logger,
		lock:      lock,
		stop:      make(chan struct{}),
	}
}

// OnMemoryAdded is the real-time hook the tool surface's store_memory
// handler calls after every successful insert (spec §4.1 "onMemoryAdded").
// Errors are swallowed (logged only) per spec §7: the ingest path must
// never fail because the learning pipeline is unhappy.
func (c *Controller) OnMemoryAdded(ctx context.Context, m BufferedMemory) {
	if !c.cfg.RealTime.Enabled {
		return
	}

	c.mu.Lock()
	c.buffer = append(c.buffer, m)
	shouldDrain := len(c.buffer) >= c.cfg.RealTime.TriggerThreshold
	c.mu.Unlock()

	if shouldDrain {
		c.drain(ctx)
	}
}

// drain implements the single-flight guarded batch drain (spec §4.1
// "Real-time path"). Concurrent calls while a drain is already running
// return immediately without taking any of the buffer.
func (c *Controller) drain(ctx context.Context) {
	if c.lock != nil {
		acquired, release, err := c.lock.TryAcquire(ctx, "pipeline:realtime-drain", 30*time.Second)
		if err != nil || !acquired {
			return
		}
		defer release()
	}

	c.mu.Lock()
	if c.isProcessing {
		c.mu.Unlock()
		return
	}
	c.isProcessing = true
	batchSize := nextBatchSize(len(c.buffer), c.cfg.RealTime.BatchSize)
	batch := append([]BufferedMemory(nil), c.buffer[:batchSize]...)
	c.buffer = c.buffer[batchSize:]
	c.mu.Unlock()

	c.enqueueBatch(ctx, batch)

	c.mu.Lock()
	c.isProcessing = false
	c.mu.Unlock()
}

// nextBatchSize caps a drain to the configured batch size, taking the whole
// buffer when it's smaller than that cap (or the cap is unset).
func nextBatchSize(bufferLen, configured int) int {
	if configured <= 0 || configured > bufferLen {
		return bufferLen
	}
	return configured
}

func (c *Controller) enqueueBatch(ctx context.Context, batch []BufferedMemory) {
	fields := logging.NewFields().Component("pipeline").Operation("realtime_drain")
	projectIDs := map[int64]bool{}

	for _, m := range batch {
		projectIDs[m.ProjectID] = true
		payload := store.JSONMap{
			"memory_id":    m.MemoryID,
			"project_id":   m.ProjectID,
			"project_name": m.ProjectName,
			"content":      m.Content,
			"memory_type":  string(m.MemoryType),
		}
		if _, err := c.st.EnqueueTask(ctx, store.TaskPatternDetection, store.PriorityPatternDetection, payload, 0, c.cfg.MaxRetries); err != nil {
			c.logger.WithFields(fields.Error(err).ToLogrus()).Warn("failed to enqueue pattern_detection task")
		}
	}

	if len(batch) >= c.cfg.RealTime.BatchSize {
		ids := make([]int64, 0, len(projectIDs))
		for id := range projectIDs {
			ids = append(ids, id)
		}
		payload := store.JSONMap{
			"triggerType": "activity_spike",
			"memoryCount": len(batch),
			"projectIds":  ids,
		}
		if _, err := c.st.EnqueueTask(ctx, store.TaskInsightGeneration, store.PriorityInsightGeneration, payload, 0, c.cfg.MaxRetries); err != nil {
			c.logger.WithFields(fields.Error(err).ToLogrus()).Warn("failed to enqueue activity-spike insight_generation task")
		}
	}
}

// Init runs the boot-time scheduled path: one enqueue per recurring task
// type at staggered offsets, plus the stuck-task sweep and completed-task GC
// (spec §4.1 "Scheduled path at init").
func (c *Controller) Init(ctx context.Context) error {
	if c.cfg.Scheduled.Enabled {
		for _, s := range scheduledOffsets {
			if _, err := c.st.EnqueueTask(ctx, s.taskType, s.priority, store.JSONMap{"scope": "global"}, s.offset, c.cfg.MaxRetries); err != nil {
				return err
			}
		}
	}

	if _, err := c.st.GCCompletedTasks(ctx, c.cfg.CompletedRetention); err != nil {
		return err
	}
	if _, err := c.st.SweepStuckTasks(ctx, c.cfg.StuckTaskThreshold); err != nil {
		return err
	}
	return nil
}

// Run starts the worker loop's poll ticker, blocking until ctx is canceled
// or Stop is called.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.runBatch(ctx)
		}
	}
}

// Stop signals Run to return after its current tick.
func (c *Controller) Stop() {
	close(c.stop)
}

// runBatch claims up to Workers tasks within one transaction, then runs
// each handler sequentially (spec §4.1 "Worker loop").
func (c *Controller) runBatch(ctx context.Context) {
	fields := logging.NewFields().Component("pipeline").Operation("worker_batch")

	tx, err := c.st.Raw().Begin(ctx)
	if err != nil {
		c.logger.WithFields(fields.Error(err).ToLogrus()).Error("failed to begin claim transaction")
		return
	}

	tasks, err := store.ClaimTasks(ctx, tx, c.cfg.Workers)
	if err != nil {
		c.logger.WithFields(fields.Error(err).ToLogrus()).Error("failed to claim tasks")
		_ = tx.Rollback(ctx)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		c.logger.WithFields(fields.Error(err).ToLogrus()).Error("failed to commit claim transaction")
		return
	}

	for _, task := range tasks {
		c.runTask(ctx, task)
	}
}

func (c *Controller) runTask(ctx context.Context, task store.LearningTask) {
	fields := logging.NewFields().Component("pipeline").Operation("run_task").Resource(string(task.TaskType), "")

	handler, ok := handlers[task.TaskType]
	if !ok {
		c.logger.WithFields(fields.ToLogrus()).Warn("no handler registered for task type")
		_ = c.st.FailOrRetryTask(ctx, task, sharederrors.WithKind(sharederrors.ErrTask, "unknown task type "+string(task.TaskType), nil))
		return
	}

	start := time.Now()
	summary, err := handler(ctx, c, task)
	duration := time.Since(start)

	if err != nil {
		if ferr := c.st.FailOrRetryTask(ctx, task, err); ferr != nil {
			c.logger.WithFields(fields.Error(ferr).ToLogrus()).Error("failed to record task failure")
		}
		return
	}
	if cerr := c.st.CompleteTask(ctx, task.ID, summary, duration); cerr != nil {
		c.logger.WithFields(fields.Error(cerr).ToLogrus()).Error("failed to mark task completed")
	}
}
