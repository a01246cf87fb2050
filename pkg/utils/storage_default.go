//go:build !android

package utils

// EnsureStorageDir 非 Android 平台无需准备
// gdata 会自动创建偏好设置目录
func EnsureStorageDir() error {
	return nil
}
