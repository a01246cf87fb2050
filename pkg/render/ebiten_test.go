package render

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/network"
)

var testStyle = Style{Color: color.NRGBA{R: 0, G: 195, B: 255, A: 255}, Opacity: 0.85}

// TestEbitenRenderer_CommitBuildsQuads 测试为每个可见实例构建的四边形
func TestEbitenRenderer_CommitBuildsQuads(t *testing.T) {
	r := NewEbitenRenderer(800, 600)
	if err := r.Init(3, testStyle); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer r.Dispose()

	r.Instances().Write([]particle.Transform{
		{Position: particle.Vec3{}, Scale: 0.1},
		{Position: particle.Vec3{X: 2, Y: 1}, Scale: 0.05},
		{Position: particle.Vec3{Z: 30}, Scale: 0.1}, // 位于相机之后
	})
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	if r.Drawn() != 2 {
		t.Fatalf("Drawn() = %d, want 2", r.Drawn())
	}
	if len(r.vertices) != 8 {
		t.Fatalf("vertices = %d, want 8", len(r.vertices))
	}

	_, _, ppu, _ := r.Camera().Project(particle.Vec3{})
	radius := 0.1 * ppu
	const tolerance = 0.01

	v := r.vertices
	if math.Abs(float64(v[0].DstX)-(400-radius)) > tolerance || math.Abs(float64(v[0].DstY)-(300-radius)) > tolerance {
		t.Errorf("left-top = (%.2f, %.2f), want (%.2f, %.2f)", v[0].DstX, v[0].DstY, 400-radius, 300-radius)
	}
	if math.Abs(float64(v[3].DstX)-(400+radius)) > tolerance || math.Abs(float64(v[3].DstY)-(300+radius)) > tolerance {
		t.Errorf("right-bottom = (%.2f, %.2f), want (%.2f, %.2f)", v[3].DstX, v[3].DstY, 400+radius, 300+radius)
	}
	if v[1].SrcX != spriteSize || v[2].SrcY != spriteSize {
		t.Errorf("texture coordinates do not cover the sprite: %+v", v[:4])
	}
	if math.Abs(float64(v[0].ColorA)-0.85) > 1e-6 {
		t.Errorf("vertex alpha = %v, want 0.85", v[0].ColorA)
	}
	if r.Instances().NeedsUpdate() {
		t.Error("Commit should consume the change flag")
	}
}

// TestEbitenRenderer_CommitWithoutChange 测试缓冲区未变化时不重建
func TestEbitenRenderer_CommitWithoutChange(t *testing.T) {
	r := NewEbitenRenderer(800, 600)
	if err := r.Init(1, testStyle); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer r.Dispose()

	r.Instances().Write([]particle.Transform{{Scale: 0.1}})
	_ = r.Commit()
	r.vertices[0].DstX = -1

	if err := r.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if r.vertices[0].DstX != -1 {
		t.Error("Commit rebuilt vertices without a buffer change")
	}
}

// TestEbitenRenderer_ZeroCount 测试空粒子场不绘制任何内容
func TestEbitenRenderer_ZeroCount(t *testing.T) {
	r := NewEbitenRenderer(800, 600)
	if err := r.Init(0, testStyle); err != nil {
		t.Fatalf("Init(0) error: %v", err)
	}
	defer r.Dispose()

	r.Instances().Write(nil)
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if r.Drawn() != 0 {
		t.Errorf("Drawn() = %d, want 0", r.Drawn())
	}
}

// TestEbitenRenderer_Dispose 测试重复释放及释放后使用
func TestEbitenRenderer_Dispose(t *testing.T) {
	r := NewEbitenRenderer(800, 600)
	if err := r.Init(10, testStyle); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	r.Dispose()
	r.Dispose()

	if r.sprite != nil {
		t.Error("sprite not released")
	}
	if err := r.Commit(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Commit() after Dispose = %v, want ErrDisposed", err)
	}
	if err := r.Init(10, testStyle); !errors.Is(err, ErrDisposed) {
		t.Errorf("Init() after Dispose = %v, want ErrDisposed", err)
	}
}

// TestEbitenRenderer_SetNetwork 测试节点位置跟随姿态
func TestEbitenRenderer_SetNetwork(t *testing.T) {
	r := NewEbitenRenderer(800, 600)
	d := network.Layout([]int{2, 2}, nil)
	pose := network.Pose{Offset: particle.Vec3{Z: -5}}

	r.SetNetwork(d, pose, NetworkStyle{})
	if len(r.netPositions) != 4 {
		t.Fatalf("positions = %d, want 4", len(r.netPositions))
	}
	if r.netPositions[0].Z != d.Nodes[0].Position.Z-5 {
		t.Errorf("node 0 z = %v, want offset by -5", r.netPositions[0].Z)
	}

	r.SetNetwork(nil, pose, NetworkStyle{})
	if !r.diagram.Empty() {
		t.Error("nil diagram should clear the network")
	}
}
