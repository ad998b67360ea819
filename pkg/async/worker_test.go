package async

import (
	"context"
	"sync/atomic"
	"testing"

	"jianlou/pkg/logger"
)

func TestWorker_ExecutesSubmittedTasks(t *testing.T) {
	t.Parallel()

	worker := NewWorker(10, logger.NewLogger("error"))
	worker.Start(2)

	var executed int64
	for i := 0; i < 5; i++ {
		worker.Submit(Task{
			Name: "count",
			Handler: func(ctx context.Context) error {
				atomic.AddInt64(&executed, 1)
				return nil
			},
		})
	}

	// Stop等待队列排空
	worker.Stop()

	if got := atomic.LoadInt64(&executed); got != 5 {
		t.Errorf("executed = %d, want 5", got)
	}
}

func TestWorker_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	// 未启动工作协程，队列容量1：第二个任务应被丢弃而非阻塞
	worker := NewWorker(1, logger.NewLogger("error"))

	var executed int64
	task := Task{
		Name: "count",
		Handler: func(ctx context.Context) error {
			atomic.AddInt64(&executed, 1)
			return nil
		},
	}
	worker.Submit(task)
	worker.Submit(task)

	worker.Start(1)
	worker.Stop()

	if got := atomic.LoadInt64(&executed); got != 1 {
		t.Errorf("executed = %d, want 1（超出队列容量的任务应被丢弃）", got)
	}
}
