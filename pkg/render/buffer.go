// Package render 将粒子变换和网络图姿态渲染为像素
//
// 每个后端持有一个 InstanceBuffer。粒子场把当前帧的变换写入缓冲区并标记变化，
// 后端在 Commit 时消费该标记，在呈现时从缓冲区绘制。
package render

import (
	"image/color"

	"github.com/decker502/mlviz/internal/particle"
)

// Style 粒子场所有实例共用的绘制状态
type Style struct {
	Color   color.NRGBA
	Opacity float64
}

// NetworkStyle 网络图的颜色
// 连线的 alpha 会乘以姿态中的连线透明度
type NetworkStyle struct {
	NodeColor color.NRGBA
	EdgeColor color.NRGBA
}

// InstanceBuffer 每个实例保存一个变换
// 实例不带旋转，整个缓冲区每帧重写
type InstanceBuffer struct {
	instances   []particle.Transform
	needsUpdate bool
	version     uint64
}

// NewInstanceBuffer 为 count 个实例分配缓冲区
func NewInstanceBuffer(count int) *InstanceBuffer {
	if count < 0 {
		count = 0
	}
	return &InstanceBuffer{instances: make([]particle.Transform, count)}
}

// Len 返回实例数量
func (b *InstanceBuffer) Len() int {
	return len(b.instances)
}

// Write 将变换复制到缓冲区并标记为已变化
// 多出的变换被忽略，Write 不分配内存
func (b *InstanceBuffer) Write(transforms []particle.Transform) {
	copy(b.instances, transforms)
	b.needsUpdate = true
	b.version++
}

// Instances 返回缓冲区内容，切片归缓冲区所有
func (b *InstanceBuffer) Instances() []particle.Transform {
	return b.instances
}

// NeedsUpdate 判断上次 Consume 之后缓冲区是否有变化
func (b *InstanceBuffer) NeedsUpdate() bool {
	return b.needsUpdate
}

// Consume 清除变化标记，并返回清除前的状态
func (b *InstanceBuffer) Consume() bool {
	changed := b.needsUpdate
	b.needsUpdate = false
	return changed
}

// Version 返回 Write 的调用次数
func (b *InstanceBuffer) Version() uint64 {
	return b.version
}

// withAlpha 按 [0, 1] 内的 a 缩放 c 的 alpha
func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	c.A = uint8(float64(c.A)*a + 0.5)
	return c
}
