package field

import "github.com/decker502/mlviz/internal/particle"

// PointerSlot 将最新的指针从输入处理函数传给帧回调
//
// 最多保存一个待读取的值：Publish 不会阻塞，并替换未读取的值；
// Latest 返回最新的值，没有新值时返回上一次的值。
//
// 任意数量的 goroutine 都可以 Publish，但 Latest 只能由唯一的帧 goroutine 调用。
type PointerSlot struct {
	ch   chan particle.Pointer
	last particle.Pointer
}

// NewPointerSlot 创建空槽位
// 第一次 Publish 之前 Latest 返回"无指针"
func NewPointerSlot() *PointerSlot {
	return &PointerSlot{ch: make(chan particle.Pointer, 1)}
}

// Publish 保存 p，丢弃读取方尚未取走的值
func (s *PointerSlot) Publish(p particle.Pointer) {
	for {
		select {
		case s.ch <- p:
			return
		default:
		}
		// 槽位已满：丢弃旧值后重试
		select {
		case <-s.ch:
		default:
		}
	}
}

// Latest 返回最新发布的指针
func (s *PointerSlot) Latest() particle.Pointer {
	select {
	case p := <-s.ch:
		s.last = p
	default:
	}
	return s.last
}
