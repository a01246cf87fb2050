package field

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/render"
)

// fakeRenderer 记录粒子场对后端的调用
type fakeRenderer struct {
	mu          sync.Mutex
	buffer      *render.InstanceBuffer
	style       render.Style
	initErr     error
	panicCommit bool
	inits       int
	commits     int
	disposals   int
}

func (r *fakeRenderer) Init(count int, style render.Style) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	if r.initErr != nil {
		return r.initErr
	}
	r.buffer = render.NewInstanceBuffer(count)
	r.style = style
	return nil
}

func (r *fakeRenderer) Instances() *render.InstanceBuffer { return r.buffer }

func (r *fakeRenderer) SetStyle(style render.Style) {
	r.mu.Lock()
	r.style = style
	r.mu.Unlock()
}

func (r *fakeRenderer) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicCommit {
		r.panicCommit = false
		panic("driver lost")
	}
	r.buffer.Consume()
	r.commits++
	return nil
}

func (r *fakeRenderer) Dispose() {
	r.mu.Lock()
	r.disposals++
	r.mu.Unlock()
}

func (r *fakeRenderer) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

func testConfig(count int) config.FieldConfig {
	cfg := config.DefaultFieldConfig()
	cfg.Count = count
	return cfg
}

func testOptions() Options {
	return Options{Source: rand.New(rand.NewSource(1)), ViewportWidth: 800, ViewportHeight: 600}
}

// TestMount_InvalidConfig 测试构造错误时不获取任何资源
func TestMount_InvalidConfig(t *testing.T) {
	events := NewListeners()
	r := &fakeRenderer{}

	cfg := testConfig(10)
	cfg.Depth = 0
	if _, err := Mount(cfg, r, events, testOptions()); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("Mount() error = %v, want ErrInvalidConfig", err)
	}
	if events.Count() != 0 {
		t.Errorf("listeners = %d after failed mount, want 0", events.Count())
	}
	if r.inits != 0 {
		t.Errorf("renderer initialized %d times, want 0", r.inits)
	}
}

// TestMount_ZeroCount 测试空粒子场可以挂载且不绘制任何内容
func TestMount_ZeroCount(t *testing.T) {
	r := &fakeRenderer{}
	f, err := Mount(testConfig(0), r, NewListeners(), testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	defer f.Unmount()

	if err := f.Frame(0.016); err != nil {
		t.Fatalf("Frame() error: %v", err)
	}
	if f.Count() != 0 || r.Instances().Len() != 0 {
		t.Errorf("count = %d, instances = %d, want 0", f.Count(), r.Instances().Len())
	}
	if f.Degraded() {
		t.Error("empty field should not be degraded")
	}
}

// TestFrame_WritesInstances 测试每帧重写并提交缓冲区
func TestFrame_WritesInstances(t *testing.T) {
	r := &fakeRenderer{}
	f, err := Mount(testConfig(50), r, NewListeners(), testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	defer f.Unmount()

	for i := 1; i <= 3; i++ {
		if err := f.Frame(float64(i) / 60); err != nil {
			t.Fatalf("Frame() error: %v", err)
		}
	}
	if r.commitCount() != 3 {
		t.Errorf("commits = %d, want 3", r.commitCount())
	}
	if r.Instances().Version() != 3 {
		t.Errorf("buffer writes = %d, want 3", r.Instances().Version())
	}

	ps := f.Particles()
	for i, inst := range r.Instances().Instances() {
		if inst.Position != ps[i].Position {
			t.Fatalf("instance %d at %+v, particle at %+v", i, inst.Position, ps[i].Position)
		}
	}
	if frames, skipped := f.Stats(); frames != 3 || skipped != 0 {
		t.Errorf("Stats() = (%d, %d), want (3, 0)", frames, skipped)
	}
}

// TestUnmount_StopsFrames 测试卸载后不再提交且监听器已注销
func TestUnmount_StopsFrames(t *testing.T) {
	events := NewListeners()
	baseline := events.Count()

	r := &fakeRenderer{}
	f, err := Mount(testConfig(100), r, events, testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	if events.Count() != baseline+2 {
		t.Errorf("listeners after mount = %d, want %d", events.Count(), baseline+2)
	}

	_ = f.Frame(0.1)
	f.Unmount()
	f.Unmount()

	if err := f.Frame(0.2); !errors.Is(err, ErrDisposed) {
		t.Errorf("Frame() after Unmount = %v, want ErrDisposed", err)
	}
	if r.commitCount() != 1 {
		t.Errorf("commits = %d, want 1", r.commitCount())
	}
	if events.Count() != baseline {
		t.Errorf("listeners after unmount = %d, want baseline %d", events.Count(), baseline)
	}
	if r.disposals != 1 {
		t.Errorf("renderer disposed %d times, want 1", r.disposals)
	}
	if !f.Disposed() || f.Count() != 0 {
		t.Errorf("disposed = %v, count = %d, want true, 0", f.Disposed(), f.Count())
	}

	// 卸载后的事件没有接收者
	events.DispatchPointer(particle.PointerAt(0, 0))
	events.DispatchResize(10, 10)
}

// TestUnmount_DuringLoop 测试循环驱动帧期间卸载
func TestUnmount_DuringLoop(t *testing.T) {
	events := NewListeners()
	r := &fakeRenderer{}
	f, err := Mount(testConfig(200), r, events, testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}

	loop := NewLoop(500, func(elapsed float64) { _ = f.Frame(elapsed) })
	loop.Start(t.Context())
	defer loop.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.commitCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.commitCount() < 3 {
		t.Fatal("loop did not drive frames")
	}

	f.Unmount()
	after := r.commitCount()
	time.Sleep(30 * time.Millisecond)

	if got := r.commitCount(); got != after {
		t.Errorf("commits grew from %d to %d after unmount", after, got)
	}
	if events.Count() != 0 {
		t.Errorf("listeners = %d, want 0", events.Count())
	}
}

// TestMount_Degraded 测试后端失败时粒子场不渲染任何内容
func TestMount_Degraded(t *testing.T) {
	events := NewListeners()
	r := &fakeRenderer{initErr: errors.New("no GPU")}

	f, err := Mount(testConfig(10), r, events, testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	if !f.Degraded() {
		t.Fatal("Degraded() = false, want true")
	}
	if !errors.Is(f.Err(), ErrBackendUnavailable) {
		t.Errorf("Err() = %v, want ErrBackendUnavailable", f.Err())
	}
	if r.disposals == 0 {
		t.Error("failed renderer was not disposed")
	}

	if err := f.Frame(0.1); err != nil {
		t.Errorf("Frame() on degraded field = %v, want nil", err)
	}
	if r.commitCount() != 0 {
		t.Errorf("commits = %d, want 0", r.commitCount())
	}

	f.Unmount()
	if events.Count() != 0 {
		t.Errorf("listeners = %d after unmount, want 0", events.Count())
	}
}

// TestMount_NilRenderer 测试没有后端时的降级挂载
func TestMount_NilRenderer(t *testing.T) {
	f, err := Mount(testConfig(10), nil, nil, testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	defer f.Unmount()
	if !f.Degraded() {
		t.Error("Degraded() = false, want true")
	}
}

// TestFrame_PanicSkipped 测试提交 panic 时只跳过一帧
func TestFrame_PanicSkipped(t *testing.T) {
	r := &fakeRenderer{}
	f, err := Mount(testConfig(10), r, NewListeners(), testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	defer f.Unmount()

	r.panicCommit = true
	if err := f.Frame(0.1); err != nil {
		t.Fatalf("Frame() = %v, want nil after recovery", err)
	}
	if err := f.Frame(0.2); err != nil {
		t.Fatalf("Frame() error: %v", err)
	}

	frames, skipped := f.Stats()
	if frames != 1 || skipped != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", frames, skipped)
	}
}

// TestFrame_PointerFromListeners 测试分发的指针送达推进步骤
func TestFrame_PointerFromListeners(t *testing.T) {
	events := NewListeners()
	cfg := testConfig(300)
	cfg.Depth = 10

	run := func(dispatch bool) []particle.Particle {
		r := &fakeRenderer{}
		f, err := Mount(cfg, r, events, testOptions())
		if err != nil {
			t.Fatalf("Mount() error: %v", err)
		}
		defer f.Unmount()
		if dispatch {
			events.DispatchPointer(particle.PointerAt(0, 0))
		}
		_ = f.Frame(0)
		return f.Particles()
	}

	without := run(false)
	with := run(true)

	changed := 0
	for i := range with {
		if with[i].Velocity != without[i].Velocity {
			changed++
		}
	}
	if changed == 0 {
		t.Error("dispatched pointer did not affect any particle")
	}
}

// TestResize_IgnoresInvalid 测试尺寸事件更新视口
func TestResize_IgnoresInvalid(t *testing.T) {
	events := NewListeners()
	f, err := Mount(testConfig(1), &fakeRenderer{}, events, testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	defer f.Unmount()

	events.DispatchResize(1024, 768)
	if w, h := f.viewport(); w != 1024 || h != 768 {
		t.Errorf("viewport = %vx%v, want 1024x768", w, h)
	}
	events.DispatchResize(0, 768)
	if w, _ := f.viewport(); w != 1024 {
		t.Errorf("viewport width = %v after invalid resize, want 1024", w)
	}
}

// TestSetEmotion 测试已挂载粒子场的重新着色
func TestSetEmotion(t *testing.T) {
	r := &fakeRenderer{}
	f, err := Mount(testConfig(1), r, nil, testOptions())
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}

	if err := f.SetEmotion(config.EmotionSadness); err != nil {
		t.Fatalf("SetEmotion() error: %v", err)
	}
	if r.style.Opacity != 0.7 {
		t.Errorf("opacity = %v, want 0.7", r.style.Opacity)
	}
	if r.style.Color.R != 0 || r.style.Color.G != 0xC3 {
		t.Errorf("color = %v, want sadness blue", r.style.Color)
	}

	if err := f.SetEmotion("boredom"); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("SetEmotion(unknown) = %v, want ErrInvalidConfig", err)
	}
	if f.Config().EmotionMode != config.EmotionSadness {
		t.Error("invalid emotion replaced the current one")
	}

	f.Unmount()
	if err := f.SetEmotion(config.EmotionAnger); !errors.Is(err, ErrDisposed) {
		t.Errorf("SetEmotion() after Unmount = %v, want ErrDisposed", err)
	}
}

// TestMount_SameSeedSameField 测试相同种子生成相同的粒子集合
func TestMount_SameSeedSameField(t *testing.T) {
	a, _ := Mount(testConfig(20), &fakeRenderer{}, nil, testOptions())
	b, _ := Mount(testConfig(20), &fakeRenderer{}, nil, testOptions())
	defer a.Unmount()
	defer b.Unmount()

	pa, pb := a.Particles(), b.Particles()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("particle %d differs between identical seeds", i)
		}
	}
	if a.ID() == b.ID() {
		t.Error("two mounts share an id")
	}
}
