package render

import (
	"image/color"

	"github.com/gdamore/tcell/v2"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/network"
)

// cellAspect 终端格子的高宽比
const cellAspect = 2.0

// densityRamp 按投影半径（格子数）选择字符
var densityRamp = []struct {
	maxRadius float64
	glyph     rune
}{
	{0.15, '.'},
	{0.3, '·'},
	{0.6, '•'},
	{1.2, 'o'},
	{2.5, 'O'},
}

const (
	largestGlyph = '@'
	nodeGlyph    = '◉'
	edgeGlyph    = '·'
)

// Glyph 返回指定半径（格子数）的粒子所用的字符
func Glyph(radius float64) rune {
	for _, step := range densityRamp {
		if radius < step.maxRadius {
			return step.glyph
		}
	}
	return largestGlyph
}

type cell struct {
	x, y  int
	glyph rune
}

// TerminalRenderer 将粒子场绘制到 tcell 屏幕上
// 每个粒子一个字符，粒子越大字符越密
type TerminalRenderer struct {
	screen tcell.Screen
	camera *Camera
	buffer *InstanceBuffer
	style  Style

	cells     []cell
	particle  tcell.Style
	nodeStyle tcell.Style
	edgeStyle tcell.Style

	diagram      *network.Diagram
	netPositions []particle.Vec3

	disposed bool
}

// NewTerminalRenderer 创建在 screen 上绘制的渲染器
// screen 必须已经初始化，渲染器不会调用 Fini
func NewTerminalRenderer(screen tcell.Screen) *TerminalRenderer {
	w, h := screen.Size()
	cam := NewCamera(float64(w), float64(h))
	cam.Aspect = cellAspect
	return &TerminalRenderer{
		screen: screen,
		camera: cam,
		buffer: NewInstanceBuffer(0),
	}
}

// Init 分配实例缓冲区和格子列表
func (r *TerminalRenderer) Init(count int, style Style) error {
	if r.disposed {
		return ErrDisposed
	}
	r.buffer = NewInstanceBuffer(count)
	r.cells = make([]cell, 0, count)
	r.SetStyle(style)
	return nil
}

// Instances 返回粒子场写入的缓冲区
func (r *TerminalRenderer) Instances() *InstanceBuffer {
	return r.buffer
}

// SetStyle 设置粒子颜色，透明度使颜色向黑色变暗
func (r *TerminalRenderer) SetStyle(style Style) {
	r.style = style
	r.particle = tcell.StyleDefault.Foreground(termColor(style.Color, style.Opacity))
	r.buffer.needsUpdate = true
}

func termColor(c color.NRGBA, opacity float64) tcell.Color {
	opacity = max(0, min(1, opacity))
	scale := func(v uint8) int32 { return int32(float64(v) * opacity) }
	return tcell.NewRGBColor(scale(c.R), scale(c.G), scale(c.B))
}

// Resize 按新的格子网格更新相机
func (r *TerminalRenderer) Resize(cols, rows int) {
	r.camera.Resize(float64(cols), float64(rows))
	r.buffer.needsUpdate = true
}

// Commit 缓冲区有变化时将实例投影到格子网格
func (r *TerminalRenderer) Commit() error {
	if r.disposed {
		return ErrDisposed
	}
	if !r.buffer.Consume() {
		return nil
	}

	r.cells = r.cells[:0]
	for _, inst := range r.buffer.Instances() {
		x, y, ppu, ok := r.camera.Project(inst.Position)
		if !ok || x < 0 || y < 0 || x >= r.camera.Width || y >= r.camera.Height {
			continue
		}
		r.cells = append(r.cells, cell{x: int(x), y: int(y), glyph: Glyph(inst.Scale * ppu)})
	}
	return nil
}

// Plotted 返回上一次 Commit 放到网格上的粒子数
func (r *TerminalRenderer) Plotted() int {
	return len(r.cells)
}

// SetNetwork 放置网络图，供下一次 Present 使用
func (r *TerminalRenderer) SetNetwork(d *network.Diagram, pose network.Pose, style NetworkStyle) {
	r.diagram = d
	if d.Empty() {
		return
	}
	r.nodeStyle = tcell.StyleDefault.Foreground(termColor(style.NodeColor, 1))
	r.edgeStyle = tcell.StyleDefault.Foreground(termColor(style.EdgeColor, pose.EdgeOpacity))
	if cap(r.netPositions) < len(d.Nodes) {
		r.netPositions = make([]particle.Vec3, len(d.Nodes))
	}
	r.netPositions = r.netPositions[:len(d.Nodes)]
	d.Place(pose, r.netPositions)
}

// Present 清屏后依次绘制粒子、连线和节点，再显示结果
func (r *TerminalRenderer) Present() {
	if r.disposed {
		return
	}
	r.screen.Clear()
	for _, c := range r.cells {
		r.screen.SetContent(c.x, c.y, c.glyph, nil, r.particle)
	}
	r.drawNetwork()
	r.screen.Show()
}

func (r *TerminalRenderer) drawNetwork() {
	if r.diagram.Empty() {
		return
	}
	for _, e := range r.diagram.Edges {
		x0, y0, _, ok0 := r.camera.Project(r.netPositions[e.From])
		x1, y1, _, ok1 := r.camera.Project(r.netPositions[e.To])
		if ok0 && ok1 && r.nearGrid(x0, y0) && r.nearGrid(x1, y1) {
			r.line(int(x0), int(y0), int(x1), int(y1))
		}
	}
	for _, p := range r.netPositions {
		if x, y, _, ok := r.camera.Project(p); ok {
			r.screen.SetContent(int(x), int(y), nodeGlyph, nil, r.nodeStyle)
		}
	}
}

// nearGrid 限制线段端点的范围
// 靠近相机的连线不会产生无界的遍历
func (r *TerminalRenderer) nearGrid(x, y float64) bool {
	w, h := r.camera.Width, r.camera.Height
	return x >= -w && x <= 2*w && y >= -h && y <= 2*h
}

// line 用连线字符绘制 Bresenham 直线
func (r *TerminalRenderer) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.screen.SetContent(x0, y0, edgeGlyph, nil, r.edgeStyle)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Dispose 丢弃格子列表，screen 仍归调用方所有
func (r *TerminalRenderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.cells = nil
	r.netPositions = nil
}
