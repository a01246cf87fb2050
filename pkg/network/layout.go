// Package network 负责神经网络节点图的布局与动画
//
// 网络图绘制在粒子场之上。
package network

import (
	"math"

	"github.com/decker502/mlviz/internal/particle"
)

const (
	layerSpacing = 2.0 // 层间距（沿 z）
	nodeSpacing  = 1.0 // 层内节点间距（沿 y）
)

// Node 网络图中的一个神经元
type Node struct {
	Position particle.Vec3
	Layer    int
	Value    float64
}

// Edge 按索引连接两个节点
type Edge struct {
	From, To int
}

// Diagram 网络的静态布局
//
// 各层以原点为中心：第 k 层位于 z = (k - (L-1)/2) * 2，
// n 个节点的层中第 j 个节点位于 y = j - (n-1)/2。
type Diagram struct {
	Layers []int
	Nodes  []Node
	Edges  []Edge
}

// Layout 按给定的各层大小构建网络图
//
// 每层的每个节点都与下一层的每个节点相连。
// 给出 data 时填充第一层的数值，其余数值为 0。
// 层大小不为正数时该层没有节点。
func Layout(layers []int, data []float64) *Diagram {
	d := &Diagram{Layers: append([]int(nil), layers...)}

	nodes, edges := 0, 0
	for k, n := range layers {
		if n <= 0 {
			continue
		}
		nodes += n
		if k+1 < len(layers) && layers[k+1] > 0 {
			edges += n * layers[k+1]
		}
	}
	d.Nodes = make([]Node, 0, nodes)
	d.Edges = make([]Edge, 0, edges)

	layerOffset := float64(len(layers)-1) / 2
	start := 0
	for k, n := range layers {
		if n <= 0 {
			continue
		}
		z := (float64(k) - layerOffset) * layerSpacing
		verticalOffset := float64(n-1) / 2

		for j := 0; j < n; j++ {
			var value float64
			if k == 0 && j < len(data) {
				value = data[j]
			}
			d.Nodes = append(d.Nodes, Node{
				Position: particle.Vec3{Y: (float64(j) - verticalOffset) * nodeSpacing, Z: z},
				Layer:    k,
				Value:    value,
			})
		}

		if k+1 < len(layers) && layers[k+1] > 0 {
			next := start + n
			for j := 0; j < n; j++ {
				for m := 0; m < layers[k+1]; m++ {
					d.Edges = append(d.Edges, Edge{From: start + j, To: next + m})
				}
			}
		}
		start += n
	}

	return d
}

// Empty 判断网络图是否没有可绘制的内容
func (d *Diagram) Empty() bool {
	return d == nil || len(d.Nodes) == 0
}

// Pose 整个网络图在一帧中的动画姿态
type Pose struct {
	Offset    particle.Vec3 // 整体平移
	RotationX float64       // 俯仰角（弧度）
	RotationY float64       // 偏航角（弧度）

	EdgeOpacity float64
	NodeSize    float64
}

// Apply 将布局位置放入场景
//
// 旋转为 XYZ 欧拉矩阵 Rx·Ry：先绕 Y 轴旋转，再绕 X 轴旋转，最后整体平移。
func (p Pose) Apply(v particle.Vec3) particle.Vec3 {
	sy, cy := math.Sincos(p.RotationY)
	x := v.X*cy + v.Z*sy
	z := -v.X*sy + v.Z*cy

	sx, cx := math.Sincos(p.RotationX)
	y := v.Y*cx - z*sx
	z = v.Y*sx + z*cx

	return particle.Vec3{X: x, Y: y, Z: z}.Add(p.Offset)
}

// Place 将每个节点的姿态位置写入 out
// out 的长度至少为 len(d.Nodes)
func (d *Diagram) Place(p Pose, out []particle.Vec3) {
	for i, n := range d.Nodes {
		out[i] = p.Apply(n.Position)
	}
}
