package field

import (
	"testing"

	"github.com/decker502/mlviz/internal/particle"
)

// TestListeners_RegisterDispatchRemove 测试注册表的生命周期
func TestListeners_RegisterDispatchRemove(t *testing.T) {
	l := NewListeners()

	var pointers, resizes int
	pid := l.OnPointer(func(particle.Pointer) { pointers++ })
	rid := l.OnResize(func(w, h int) { resizes++ })

	if l.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", l.Count())
	}
	if pid == rid {
		t.Error("listener ids collide")
	}

	l.DispatchPointer(particle.PointerAt(0, 0))
	l.DispatchResize(100, 100)
	if pointers != 1 || resizes != 1 {
		t.Errorf("dispatched (%d, %d), want (1, 1)", pointers, resizes)
	}

	l.Remove(pid)
	l.Remove(rid)
	l.Remove(rid)
	l.DispatchPointer(particle.PointerAt(0, 0))
	l.DispatchResize(100, 100)

	if l.Count() != 0 {
		t.Errorf("Count() = %d after removal, want 0", l.Count())
	}
	if pointers != 1 || resizes != 1 {
		t.Errorf("removed listeners still called: (%d, %d)", pointers, resizes)
	}
}

// TestListeners_RemoveFromHandler 测试处理函数可以注销自身
func TestListeners_RemoveFromHandler(t *testing.T) {
	l := NewListeners()

	var id ListenerID
	calls := 0
	id = l.OnPointer(func(particle.Pointer) {
		calls++
		l.Remove(id)
	})

	l.DispatchPointer(particle.Pointer{})
	l.DispatchPointer(particle.Pointer{})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
