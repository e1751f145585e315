package msgworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Job is a unit of inbound-message work. Jobs for the same ChatID always
// land on the same worker, which is what guarantees per-chat processing
// order; distinct chats may run in parallel.
type Job struct {
	ChatID  string
	Handler func(ctx context.Context) error
}

type PoolStats struct {
	NumWorkers      int   `json:"num_workers"`
	QueueSize       int   `json:"queue_size"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalDropped    int64 `json:"total_dropped"`
	TotalErrors     int64 `json:"total_errors"`
}

// Pool shards jobs across a fixed set of workers by chat id.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
}

type worker struct {
	id       int
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	pool     *Pool
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan Job, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}
	logrus.Infof("[MSG_WORKER_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch enqueues a job without blocking and reports whether it fit.
// A full queue drops the job; backpressure is the caller's concern.
func (p *Pool) TryDispatch(job Job) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardForChat(job.ChatID)
	atomic.AddInt64(&p.totalDispatched, 1)

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()

	if sent {
		return true
	}
	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[MSG_WORKER_POOL] Worker %d queue full (or stopped), dropping job for chat %s", shard, job.ChatID)
	return false
}

func (p *Pool) Dispatch(job Job) {
	_ = p.TryDispatch(job)
}

// Stop shuts the pool down gracefully, draining queued jobs.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		logrus.Info("[MSG_WORKER_POOL] Stopping workers...")
		for _, w := range p.workers {
			w.cancel()
			close(w.jobQueue)
		}
		p.wg.Wait()
		logrus.Info("[MSG_WORKER_POOL] All workers stopped")
	})
}

func (p *Pool) shardForChat(chatID string) int {
	h := fnv.New32a()
	h.Write([]byte(chatID))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *Pool) GetStats() PoolStats {
	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				logrus.Debugf("[MSG_WORKER_POOL] Worker %d shutting down", w.id)
				return
			}
			w.process(job)

		case <-w.ctx.Done():
			w.drainQueue()
			return
		}
	}
}

func (w *worker) process(job Job) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			logrus.Errorf("[MSG_WORKER_POOL] Worker %d panic for chat %s: %v", w.id, job.ChatID, r)
		}
		atomic.AddInt64(&w.pool.totalProcessed, 1)
	}()

	if err := job.Handler(w.ctx); err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
		logrus.WithError(err).Errorf("[MSG_WORKER_POOL] Worker %d job failed for chat %s", w.id, job.ChatID)
	}
}

func (w *worker) drainQueue() {
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			w.process(job)
		default:
			return
		}
	}
}
