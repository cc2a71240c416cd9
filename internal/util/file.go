package util

import "strings"

// SafeFileName 按技能名生成下载文件名：非字母数字替换为下划线并转小写，
// 如 "Machine Learning" -> "machine_learning"。
func SafeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
