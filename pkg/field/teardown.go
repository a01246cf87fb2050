package field

import "sync"

// Teardown 在获取资源时记录释放步骤，并按逆序执行
// Run 可重复调用，每条退出路径都可以调用它
type Teardown struct {
	mu    sync.Mutex
	steps []teardownStep
	done  bool
}

type teardownStep struct {
	name string
	fn   func()
}

// Push 记录一个释放步骤，Run 之后记录的步骤立即执行
func (t *Teardown) Push(name string, fn func()) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		fn()
		return
	}
	t.steps = append(t.steps, teardownStep{name: name, fn: fn})
	t.mu.Unlock()
}

// Run 按后进先出顺序执行已记录的步骤，并按执行顺序返回步骤名称
// 之后的调用返回 nil
func (t *Teardown) Run() []string {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	steps := t.steps
	t.steps = nil
	t.mu.Unlock()

	names := make([]string, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i].fn()
		names = append(names, steps[i].name)
	}
	return names
}

// Pending 返回尚未执行的步骤数
func (t *Teardown) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.steps)
}
