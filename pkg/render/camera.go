package render

import (
	"math"

	"github.com/decker502/mlviz/internal/particle"
)

// 相机默认值：位于 z = 15，朝 -z 方向观察，垂直视场角 75°
const (
	DefaultCameraZ   = 15.0
	DefaultFOV       = 75.0
	defaultNearPlane = 0.1
)

// Camera 位于 +z 轴上、朝向原点的透视相机
type Camera struct {
	Z      float64 // 到原点的距离
	FOV    float64 // 垂直视场角（度）
	Near   float64 // 比该距离更近的点被裁剪
	Width  float64 // 视口宽度（像素）
	Height float64 // 视口高度（像素）

	// Aspect 单个像素的高宽比，终端格子的高度约为宽度的两倍
	// 0 表示正方形像素
	Aspect float64

	focal float64
}

// NewCamera 返回指定视口的默认相机
func NewCamera(width, height float64) *Camera {
	c := &Camera{Z: DefaultCameraZ, FOV: DefaultFOV, Near: defaultNearPlane}
	c.Resize(width, height)
	return c
}

// Resize 更新视口
func (c *Camera) Resize(width, height float64) {
	c.Width = width
	c.Height = height
	c.focal = 1 / math.Tan(c.FOV*math.Pi/360)
}

// Project 将粒子场坐标映射到视口像素
//
// ppu 为该深度处一个场单位覆盖的垂直像素数。
// 位于近裁剪面之后的点 ok 为 false。
func (c *Camera) Project(v particle.Vec3) (x, y, ppu float64, ok bool) {
	depth := c.Z - v.Z
	if depth < c.Near || c.Height <= 0 {
		return 0, 0, 0, false
	}
	if c.focal == 0 {
		c.Resize(c.Width, c.Height)
	}

	halfH := c.Height / 2
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1
	}

	ppu = c.focal / depth * halfH
	x = c.Width/2 + v.X*ppu*aspect
	y = halfH - v.Y*ppu
	return x, y, ppu, true
}

// Visible 判断半径为 r 的投影点是否与视口相交
func (c *Camera) Visible(x, y, r float64) bool {
	return x+r >= 0 && y+r >= 0 && x-r <= c.Width && y-r <= c.Height
}
