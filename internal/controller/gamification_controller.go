package controller

import (
	"errors"
	"strconv"

	"coursemarket_backend/internal/service"
	"coursemarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GamificationController struct {
	GamificationService *service.GamificationService
}

func NewGamificationController(gamificationService *service.GamificationService) *GamificationController {
	return &GamificationController{GamificationService: gamificationService}
}

// GetStats godoc
// @Summary 获取游戏化状态
// @Description 当前用户的经验、等级、连续打卡与成就
// @Tags 游戏化
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.GamificationStats}
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/gamification/stats [get]
func (c *GamificationController) GetStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.GamificationService.GetStats(user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}

// AwardXPRequest 管理端手动发放经验
type AwardXPRequest struct {
	UserID uint   `json:"userId" binding:"required"`
	Amount int    `json:"amount" binding:"min=0"`
	Reason string `json:"reason" binding:"required"`
}

// AwardXP godoc
// @Summary 发放经验
// @Description 管理员向指定用户发放经验，自动处理升级级联
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AwardXPRequest true "发放参数"
// @Success 200 {object} util.Response{data=service.XPResult}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/gamification/xp [post]
func (c *GamificationController) AwardXP(ctx *gin.Context) {
	var req AwardXPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.GamificationService.AwardXP(req.UserID, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNegativeXPAmount):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// UpdateStreak godoc
// @Summary 打卡
// @Description 推进当前用户的连续学习记录，同日重复调用不累计
// @Tags 游戏化
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StreakResult}
// @Router /api/gamification/streak [post]
func (c *GamificationController) UpdateStreak(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.GamificationService.UpdateStreak(user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// GetLeaderboard godoc
// @Summary 获取排行榜
// @Description 按经验与等级排名，默认返回前100名
// @Tags 游戏化
// @Produce json
// @Param limit query int false "返回数量" default(100)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/leaderboard [get]
func (c *GamificationController) GetLeaderboard(ctx *gin.Context) {
	limit := service.DefaultLeaderboardLimit
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	leaderboard, err := c.GamificationService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}
