package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParamUint 读取路径参数并解析为无符号整数；非法或缺失时返回 0，
// 由下游当作不存在的 ID 处理
func ParamUint(c *gin.Context, name string) uint {
	id, _ := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id)
}
