package field

import (
	"sync"

	"github.com/decker502/mlviz/internal/particle"
)

// ListenerID 已注册监听器的标识
type ListenerID uint64

// Listeners 宿主的事件注册表
//
// 窗口或终端输入代码分发指针与尺寸事件，已挂载的粒子场在存活期间订阅。
// 可并发使用，处理函数在分发事件的 goroutine 上运行。
type Listeners struct {
	mu      sync.Mutex
	next    ListenerID
	pointer map[ListenerID]func(particle.Pointer)
	resize  map[ListenerID]func(width, height int)
}

// NewListeners 创建空的注册表
func NewListeners() *Listeners {
	return &Listeners{
		pointer: make(map[ListenerID]func(particle.Pointer)),
		resize:  make(map[ListenerID]func(width, height int)),
	}
}

// OnPointer 注册指针移动的处理函数
func (l *Listeners) OnPointer(fn func(particle.Pointer)) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.pointer[l.next] = fn
	return l.next
}

// OnResize 注册视口尺寸变化的处理函数
func (l *Listeners) OnResize(fn func(width, height int)) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.resize[l.next] = fn
	return l.next
}

// Remove 注销监听器，忽略未知的 ID
func (l *Listeners) Remove(id ListenerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pointer, id)
	delete(l.resize, id)
}

// Count 返回已注册的监听器数量
func (l *Listeners) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pointer) + len(l.resize)
}

// DispatchPointer 以 p 调用每个指针监听器
func (l *Listeners) DispatchPointer(p particle.Pointer) {
	for _, fn := range l.pointerHandlers() {
		fn(p)
	}
}

// DispatchResize 调用每个尺寸监听器
func (l *Listeners) DispatchResize(width, height int) {
	for _, fn := range l.resizeHandlers() {
		fn(width, height)
	}
}

// 复制一份处理函数列表，回调期间不持有锁（回调中可以注销自身）
func (l *Listeners) pointerHandlers() []func(particle.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fns := make([]func(particle.Pointer), 0, len(l.pointer))
	for _, fn := range l.pointer {
		fns = append(fns, fn)
	}
	return fns
}

func (l *Listeners) resizeHandlers() []func(width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fns := make([]func(width, height int), 0, len(l.resize))
	for _, fn := range l.resize {
		fns = append(fns, fn)
	}
	return fns
}
