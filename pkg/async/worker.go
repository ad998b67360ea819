package async

import (
	"context"
	"sync"
	"time"

	"jianlou/pkg/logger"
)

// Task 表示一个异步任务
type Task struct {
	Name    string
	Handler func(ctx context.Context) error
	Timeout time.Duration
}

// Worker 异步任务处理器，用于通知等即发即弃的旁路操作
type Worker struct {
	taskQueue chan Task
	logger    *logger.Logger
	wg        sync.WaitGroup
}

// NewWorker 创建一个新的工作器
func NewWorker(queueSize int, logger *logger.Logger) *Worker {
	return &Worker{
		taskQueue: make(chan Task, queueSize),
		logger:    logger,
	}
}

// Start 启动工作器
func (w *Worker) Start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.processTask()
	}
}

// Stop 停止工作器并等待队列中的任务执行完毕
func (w *Worker) Stop() {
	close(w.taskQueue)
	w.wg.Wait()
}

// Submit 将任务加入队列；队列已满时丢弃任务并记录日志，不阻塞调用方
func (w *Worker) Submit(task Task) {
	select {
	case w.taskQueue <- task:
	default:
		w.logger.Warn("异步任务队列已满，任务被丢弃", "task", task.Name)
	}
}

// processTask 处理任务的工作循环
func (w *Worker) processTask() {
	defer w.wg.Done()

	for task := range w.taskQueue {
		w.executeTask(task)
	}
}

// executeTask 执行单个任务，失败只记录日志
func (w *Worker) executeTask(task Task) {
	ctx := context.Background()
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := task.Handler(ctx); err != nil {
		w.logger.Error("异步任务执行失败", "task", task.Name, "error", err)
		return
	}
	w.logger.Debug("异步任务执行完成", "task", task.Name, "duration", time.Since(start))
}
