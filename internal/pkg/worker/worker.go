package worker

import (
	"context"
	"seafood_shop/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task 异步任务，例如发送邮件、推送通知
type Task interface {
	Name() string
	Execute(ctx context.Context) error
}

// envelope 带重试次数的任务
type envelope struct {
	task  Task
	retry int
}

// ResultHook 任务执行结果回调，用于指标统计
type ResultHook func(task string, err error)

type WorkerPool struct {
	taskQueue  chan envelope
	retryQueue chan envelope // 重试队列
	workerNum  int
	maxRetry   int
	timeout    time.Duration // 单次执行超时
	backoff    time.Duration
	onResult   ResultHook
	log        *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewWorkerPool(workerNum, bufferSize int) *WorkerPool {
	return &WorkerPool{
		taskQueue:  make(chan envelope, bufferSize),
		retryQueue: make(chan envelope, bufferSize/2+1),
		workerNum:  workerNum,
		maxRetry:   3, // 最多重试3次
		timeout:    30 * time.Second,
		backoff:    time.Second,
		log:        logger.Named("worker"),
		stopped:    make(chan struct{}),
	}
}

// OnResult 设置结果回调
func (p *WorkerPool) OnResult(hook ResultHook) *WorkerPool {
	p.onResult = hook
	return p
}

// WithBackoff 调整重试退避基数
func (p *WorkerPool) WithBackoff(d time.Duration) *WorkerPool {
	p.backoff = d
	return p
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.workerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	go p.retryWorker()
	p.log.Info("worker pool started", zap.Int("workers", p.workerNum))
}

// Stop 停止接收新任务并等待队列中的任务处理完
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopped)
		close(p.taskQueue)
	})
	p.wg.Wait()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for env := range p.taskQueue {
		err := p.run(env.task)
		if p.onResult != nil {
			p.onResult(env.task.Name(), err)
		}
		if err == nil {
			continue
		}

		fields := []zap.Field{
			zap.Int("worker", id),
			zap.String("task", env.task.Name()),
			zap.Int("attempt", env.retry+1),
			zap.Error(err),
		}
		if env.retry >= p.maxRetry {
			p.log.Error("task exceeded max retries, dropped", fields...)
			continue
		}

		env.retry++
		select {
		case p.retryQueue <- env:
			p.log.Warn("task failed, queued for retry", fields...)
		default:
			p.log.Error("retry queue full, task dropped", fields...)
		}
	}
}

func (p *WorkerPool) run(task Task) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked", zap.String("task", task.Name()), zap.Any("panic", r))
			err = errPanicked
		}
	}()
	return task.Execute(ctx)
}

func (p *WorkerPool) retryWorker() {
	for {
		select {
		case <-p.stopped:
			return
		case env := <-p.retryQueue:
			// 线性退避，避免立即重试
			select {
			case <-time.After(time.Duration(env.retry) * p.backoff):
			case <-p.stopped:
				return
			}
			p.enqueue(env)
		}
	}
}

// AddTask 入队，队列满或已停止时丢弃并返回 false，不阻塞调用方
func (p *WorkerPool) AddTask(task Task) bool {
	return p.enqueue(envelope{task: task})
}

func (p *WorkerPool) enqueue(env envelope) (ok bool) {
	select {
	case <-p.stopped:
		p.log.Warn("worker pool stopped, task dropped", zap.String("task", env.task.Name()))
		return false
	default:
	}

	// Stop 与入队并发时 channel 可能已关闭
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case p.taskQueue <- env:
		return true
	default:
		p.log.Error("worker pool queue full, task dropped", zap.String("task", env.task.Name()))
		return false
	}
}
