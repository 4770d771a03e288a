package controller

import (
	"errors"

	"coursemarket_backend/internal/service"
	"coursemarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// GetStudentAnalytics godoc
// @Summary 学习分析
// @Description 基于观看历史实时计算的派生指标（动量、稳定度、恢复分、周分布）
// @Tags 分析
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StudentAnalytics}
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/analytics/student [get]
func (c *AnalyticsController) GetStudentAnalytics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	analytics, err := c.AnalyticsService.GetStudentAnalytics(user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, analytics)
}
