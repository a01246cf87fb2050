package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/network"
)

const (
	spriteSize = 32
	// maxBatch 保证顶点索引不超出 uint16
	maxBatch = (1 << 16) / 4

	minNodeRadius = 1.5
	edgeWidth     = 1
)

// ErrDisposed Dispose 之后继续使用后端时返回
var ErrDisposed = errors.New("renderer disposed")

// additiveBlend 将源颜色叠加到目标上，重叠的粒子会更亮
var additiveBlend = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorOne,
	BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
	BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// EbitenRenderer 用分批的 DrawTriangles 调用将粒子场绘制为纹理四边形，
// 用矢量线段和圆绘制网络图
//
// Commit 在 Game.Update 中运行，实例缓冲区有变化时重建顶点数组；
// Draw 在 Game.Draw 中运行，只发出绘制调用。
type EbitenRenderer struct {
	camera *Camera
	buffer *InstanceBuffer
	style  Style
	sprite *ebiten.Image

	// 预分配的顶点/索引数组，每帧复用，避免内存分配
	vertices []ebiten.Vertex
	indices  []uint16
	drawn    int

	diagram      *network.Diagram
	pose         network.Pose
	netStyle     NetworkStyle
	netPositions []particle.Vec3

	disposed bool
}

// NewEbitenRenderer 创建指定视口尺寸的渲染器
func NewEbitenRenderer(width, height int) *EbitenRenderer {
	return &EbitenRenderer{
		camera: NewCamera(float64(width), float64(height)),
		buffer: NewInstanceBuffer(0),
	}
}

// Init 分配实例缓冲区、顶点数组和粒子贴图
// 图形驱动的 panic 作为错误返回
func (r *EbitenRenderer) Init(count int, style Style) (err error) {
	if r.disposed {
		return ErrDisposed
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to create particle sprite: %v", rec)
		}
	}()

	r.buffer = NewInstanceBuffer(count)
	r.style = style
	r.vertices = make([]ebiten.Vertex, 0, count*4)
	r.indices = make([]uint16, 0, min(count, maxBatch)*6)
	r.drawn = 0
	r.sprite = newSprite()
	return nil
}

// newSprite 绘制白色圆盘，由顶点颜色为每个粒子场着色
func newSprite() *ebiten.Image {
	img := ebiten.NewImage(spriteSize, spriteSize)
	vector.DrawFilledCircle(img, spriteSize/2, spriteSize/2, spriteSize/2, color.White, true)
	return img
}

// Instances 返回粒子场写入的缓冲区
func (r *EbitenRenderer) Instances() *InstanceBuffer {
	return r.buffer
}

// SetStyle 修改颜色和透明度，下一次 Commit 时生效
func (r *EbitenRenderer) SetStyle(style Style) {
	r.style = style
	r.buffer.needsUpdate = true
}

// Resize 更新相机视口
func (r *EbitenRenderer) Resize(width, height int) {
	r.camera.Resize(float64(width), float64(height))
	r.buffer.needsUpdate = true
}

// Camera 返回绘制使用的投影
func (r *EbitenRenderer) Camera() *Camera {
	return r.camera
}

// Commit 实例缓冲区有变化时据此重建顶点数组
func (r *EbitenRenderer) Commit() error {
	if r.disposed {
		return ErrDisposed
	}
	if !r.buffer.Consume() {
		return nil
	}

	red := float32(r.style.Color.R) / 255
	green := float32(r.style.Color.G) / 255
	blue := float32(r.style.Color.B) / 255
	alpha := float32(r.style.Color.A) / 255 * float32(r.style.Opacity)

	// 重置顶点数组（保留容量）
	r.vertices = r.vertices[:0]
	r.drawn = 0
	for _, inst := range r.buffer.Instances() {
		x, y, ppu, ok := r.camera.Project(inst.Position)
		if !ok {
			continue
		}
		radius := inst.Scale * ppu
		if radius <= 0 || !r.camera.Visible(x, y, radius) {
			continue
		}
		r.vertices = appendQuad(r.vertices, x, y, radius, red, green, blue, alpha)
		r.drawn++
	}
	return nil
}

// appendQuad 添加以 (x, y) 为中心的贴图四边形的四个角
// 顺序为左上、右上、左下、右下
func appendQuad(v []ebiten.Vertex, x, y, radius float64, red, green, blue, alpha float32) []ebiten.Vertex {
	x0, y0 := float32(x-radius), float32(y-radius)
	x1, y1 := float32(x+radius), float32(y+radius)
	return append(v,
		ebiten.Vertex{DstX: x0, DstY: y0, SrcX: 0, SrcY: 0, ColorR: red, ColorG: green, ColorB: blue, ColorA: alpha},
		ebiten.Vertex{DstX: x1, DstY: y0, SrcX: spriteSize, SrcY: 0, ColorR: red, ColorG: green, ColorB: blue, ColorA: alpha},
		ebiten.Vertex{DstX: x0, DstY: y1, SrcX: 0, SrcY: spriteSize, ColorR: red, ColorG: green, ColorB: blue, ColorA: alpha},
		ebiten.Vertex{DstX: x1, DstY: y1, SrcX: spriteSize, SrcY: spriteSize, ColorR: red, ColorG: green, ColorB: blue, ColorA: alpha},
	)
}

// Drawn 返回上一次 Commit 放到屏幕上的实例数
func (r *EbitenRenderer) Drawn() int {
	return r.drawn
}

// SetNetwork 保存网络图及其姿态，供下一次 Draw 使用
// 网络图为 nil 或为空时不绘制
func (r *EbitenRenderer) SetNetwork(d *network.Diagram, pose network.Pose, style NetworkStyle) {
	r.diagram = d
	r.pose = pose
	r.netStyle = style
	if d.Empty() {
		return
	}
	if cap(r.netPositions) < len(d.Nodes) {
		r.netPositions = make([]particle.Vec3, len(d.Nodes))
	}
	r.netPositions = r.netPositions[:len(d.Nodes)]
	d.Place(pose, r.netPositions)
}

// Draw 先绘制粒子，再绘制网络图
func (r *EbitenRenderer) Draw(screen *ebiten.Image) {
	if r.disposed || r.sprite == nil {
		return
	}
	r.drawParticles(screen)
	r.drawNetwork(screen)
}

func (r *EbitenRenderer) drawParticles(screen *ebiten.Image) {
	if r.drawn == 0 {
		return
	}

	op := &ebiten.DrawTrianglesOptions{}
	op.AntiAlias = true
	op.Blend = additiveBlend

	// 按批次绘制，每批最多 maxBatch 个粒子（uint16 索引上限）
	for start := 0; start < r.drawn; start += maxBatch {
		end := min(start+maxBatch, r.drawn)

		r.indices = r.indices[:0]
		for i := 0; i < end-start; i++ {
			base := uint16(i * 4)
			r.indices = append(r.indices,
				base+0, base+1, base+2,
				base+1, base+3, base+2,
			)
		}
		screen.DrawTriangles(r.vertices[start*4:end*4], r.indices, r.sprite, op)
	}
}

func (r *EbitenRenderer) drawNetwork(screen *ebiten.Image) {
	if r.diagram.Empty() {
		return
	}

	edge := withAlpha(r.netStyle.EdgeColor, r.pose.EdgeOpacity)
	for _, e := range r.diagram.Edges {
		x0, y0, _, ok0 := r.camera.Project(r.netPositions[e.From])
		x1, y1, _, ok1 := r.camera.Project(r.netPositions[e.To])
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), edgeWidth, edge, true)
	}

	for _, p := range r.netPositions {
		x, y, ppu, ok := r.camera.Project(p)
		if !ok {
			continue
		}
		radius := max(r.pose.NodeSize*ppu/2, minNodeRadius)
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(radius), r.netStyle.NodeColor, true)
	}
}

// Dispose 释放贴图和顶点数组，重复调用无效果
func (r *EbitenRenderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	if r.sprite != nil {
		r.sprite.Deallocate()
		r.sprite = nil
	}
	r.vertices = nil
	r.indices = nil
	r.netPositions = nil
	r.drawn = 0
}
