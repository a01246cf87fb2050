package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/network"
)

// DefaultBackground 粒子场后方的深色页面背景
var DefaultBackground = color.NRGBA{R: 8, G: 11, B: 22, A: 255}

// minRasterRadius 让远处的粒子至少显示为单个像素
const minRasterRadius = 0.5

// RasterRenderer 将粒子场绘制到离屏 gg 上下文中
// 供无窗口的快照工具使用
type RasterRenderer struct {
	width, height int
	background    color.NRGBA

	ctx    *gg.Context
	camera *Camera
	buffer *InstanceBuffer
	style  Style

	diagram      *network.Diagram
	pose         network.Pose
	netStyle     NetworkStyle
	netPositions []particle.Vec3

	painted  int
	disposed bool
}

// NewRasterRenderer 创建指定图像尺寸的渲染器
func NewRasterRenderer(width, height int) *RasterRenderer {
	return &RasterRenderer{
		width:      width,
		height:     height,
		background: DefaultBackground,
		camera:     NewCamera(float64(width), float64(height)),
		buffer:     NewInstanceBuffer(0),
	}
}

// SetBackground 修改清屏颜色
func (r *RasterRenderer) SetBackground(c color.NRGBA) {
	r.background = c
}

// Init 分配绘图上下文和实例缓冲区
func (r *RasterRenderer) Init(count int, style Style) error {
	if r.disposed {
		return ErrDisposed
	}
	if r.width <= 0 || r.height <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", r.width, r.height)
	}
	r.ctx = gg.NewContext(r.width, r.height)
	r.buffer = NewInstanceBuffer(count)
	r.style = style
	return nil
}

// Instances 返回粒子场写入的缓冲区
func (r *RasterRenderer) Instances() *InstanceBuffer {
	return r.buffer
}

// SetStyle 修改颜色和透明度，下一次 Commit 时生效
func (r *RasterRenderer) SetStyle(style Style) {
	r.style = style
	r.buffer.needsUpdate = true
}

// SetNetwork 放置网络图，下一次 Commit 时绘制
func (r *RasterRenderer) SetNetwork(d *network.Diagram, pose network.Pose, style NetworkStyle) {
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

// Commit 实例缓冲区有变化时重绘图像
func (r *RasterRenderer) Commit() error {
	if r.disposed {
		return ErrDisposed
	}
	if r.ctx == nil {
		return errors.New("raster renderer not initialized")
	}
	if !r.buffer.Consume() {
		return nil
	}
	return r.paint()
}

func (r *RasterRenderer) paint() error {
	r.ctx.ClearWithColor(rgba(r.background, 1))

	r.ctx.SetColor(withAlpha(r.style.Color, r.style.Opacity))
	r.painted = 0
	for _, inst := range r.buffer.Instances() {
		x, y, ppu, ok := r.camera.Project(inst.Position)
		if !ok {
			continue
		}
		radius := inst.Scale * ppu
		if radius <= 0 || !r.camera.Visible(x, y, radius) {
			continue
		}
		r.ctx.DrawCircle(x, y, max(radius, minRasterRadius))
		if err := r.ctx.Fill(); err != nil {
			return fmt.Errorf("failed to fill particle: %w", err)
		}
		r.painted++
	}

	return r.paintNetwork()
}

func (r *RasterRenderer) paintNetwork() error {
	if r.diagram.Empty() {
		return nil
	}

	r.ctx.SetColor(withAlpha(r.netStyle.EdgeColor, r.pose.EdgeOpacity))
	r.ctx.SetLineWidth(edgeWidth)
	for _, e := range r.diagram.Edges {
		x0, y0, _, ok0 := r.camera.Project(r.netPositions[e.From])
		x1, y1, _, ok1 := r.camera.Project(r.netPositions[e.To])
		if !ok0 || !ok1 {
			continue
		}
		r.ctx.DrawLine(x0, y0, x1, y1)
		if err := r.ctx.Stroke(); err != nil {
			return fmt.Errorf("failed to stroke edge: %w", err)
		}
	}

	r.ctx.SetColor(r.netStyle.NodeColor)
	for _, p := range r.netPositions {
		x, y, ppu, ok := r.camera.Project(p)
		if !ok {
			continue
		}
		r.ctx.DrawCircle(x, y, max(r.pose.NodeSize*ppu/2, minNodeRadius))
		if err := r.ctx.Fill(); err != nil {
			return fmt.Errorf("failed to fill node: %w", err)
		}
	}
	return nil
}

func rgba(c color.NRGBA, opacity float64) gg.RGBA {
	return gg.RGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255 * opacity,
	}
}

// Painted 返回上一次重绘的粒子数
func (r *RasterRenderer) Painted() int {
	return r.painted
}

// Image 返回当前帧，Init 之前为 nil
func (r *RasterRenderer) Image() image.Image {
	if r.ctx == nil {
		return nil
	}
	return r.ctx.Image()
}

// SavePNG 将当前帧写入 path
func (r *RasterRenderer) SavePNG(path string) error {
	if r.ctx == nil {
		return errors.New("raster renderer not initialized")
	}
	return r.ctx.SavePNG(path)
}

// Dispose 关闭绘图上下文，重复调用无效果
func (r *RasterRenderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	if r.ctx != nil {
		_ = r.ctx.Close()
	}
	r.netPositions = nil
}
