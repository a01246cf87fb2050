package field

import (
	"context"
	"sync"
	"time"
)

// DefaultFPS fps <= 0 时 Loop 使用的帧率
const DefaultFPS = 60

// FrameFunc 接收循环启动后经过的秒数
type FrameFunc func(elapsed float64)

// Loop 在单个 goroutine 上由 ticker 驱动帧
//
// 用于没有自己渲染循环的宿主。帧之间不会重叠：
// 帧运行期间到达的 tick 由 ticker 丢弃。
type Loop struct {
	interval time.Duration
	frame    FrameFunc
	now      func() time.Time

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewLoop 创建每秒调用 frame fps 次的循环
func NewLoop(fps int, frame FrameFunc) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		interval: time.Second / time.Duration(fps),
		frame:    frame,
		now:      time.Now,
	}
}

// Interval 返回帧间隔
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Start 在新的 goroutine 中运行循环，直到 ctx 取消或调用 Stop
// 循环已在运行时不做任何事
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.stop = make(chan struct{})
	l.done = make(chan struct{})

	go l.run(ctx, l.stop, l.done)
}

// Run 启动循环并阻塞到循环结束
// 由 context 结束时返回 ctx.Err()，由 Stop 结束时返回 nil
func (l *Loop) Run(ctx context.Context) error {
	l.Start(ctx)
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	<-done
	return ctx.Err()
}

// Stop 结束循环并等待正在执行的帧返回
// 对已停止的循环调用是安全的
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
	done := l.done
	l.mu.Unlock()

	<-done
}

// Running 判断循环 goroutine 是否仍在运行
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(l.interval)
	defer func() {
		ticker.Stop()
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		close(done)
	}()

	start := l.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			l.frame(l.now().Sub(start).Seconds())
		}
	}
}
