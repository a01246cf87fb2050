package network

import (
	"math"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/utils"
)

// 动画常量
const (
	floatRate      = 0.5
	floatAmplitude = 0.1

	// FollowFactor 每帧追上剩余旋转量的比例
	FollowFactor = 0.05
	maxTilt      = math.Pi / 8

	edgeOpacityBase = 0.3
	edgeOpacityWave = 0.1
	edgeOpacityRate = 2.0

	nodeSizeBase = 0.2
	nodeSizeWave = 0.05
	nodeSizeRate = 3.0
)

// Animator 在帧之间保存网络图的缓动旋转
// 零值表示未旋转
type Animator struct {
	OffsetZ float64 // 整体沿 z 的固定偏移

	rotX, rotY float64
}

// Step 将动画推进到 elapsed 秒
//
// 整体沿 y 漂浮，旋转缓动跟随指针（俯仰跟随 y，偏航跟随 x），
// 连线透明度和节点大小随时间脉动。指针无效时缓动回到静止姿态。
func (a *Animator) Step(elapsed float64, ptr particle.Pointer) Pose {
	var targetX, targetY float64
	if ptr.Valid {
		targetX = ptr.Y * maxTilt
		targetY = ptr.X * maxTilt
	}
	a.rotX = utils.Lerp(a.rotX, targetX, FollowFactor)
	a.rotY = utils.Lerp(a.rotY, targetY, FollowFactor)

	return Pose{
		Offset:      particle.Vec3{Y: math.Sin(elapsed*floatRate) * floatAmplitude, Z: a.OffsetZ},
		RotationX:   a.rotX,
		RotationY:   a.rotY,
		EdgeOpacity: edgeOpacityBase + math.Sin(elapsed*edgeOpacityRate)*edgeOpacityWave,
		NodeSize:    nodeSizeBase + math.Sin(elapsed*nodeSizeRate)*nodeSizeWave,
	}
}

// Rotation 返回当前的缓动旋转
func (a *Animator) Rotation() (x, y float64) {
	return a.rotX, a.rotY
}
