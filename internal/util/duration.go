package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLectureDuration 解析 mm:ss 或 hh:mm:ss 格式的时长，返回总秒数
func ParseLectureDuration(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("duration %q: expected mm:ss or hh:mm:ss", s)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			return 0, fmt.Errorf("duration %q: empty segment", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration %q: invalid segment %q", s, p)
		}
		nums[i] = n
	}

	if len(parts) == 2 {
		if nums[1] > 59 {
			return 0, fmt.Errorf("duration %q: seconds out of range", s)
		}
		return nums[0]*60 + nums[1], nil
	}

	if nums[1] > 59 || nums[2] > 59 {
		return 0, fmt.Errorf("duration %q: minutes/seconds out of range", s)
	}
	return nums[0]*3600 + nums[1]*60 + nums[2], nil
}
