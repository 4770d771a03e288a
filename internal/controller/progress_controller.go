package controller

import (
	"errors"

	"coursemarket_backend/internal/service"
	"coursemarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// Enroll godoc
// @Summary 选课
// @Description 当前用户报名课程，重复报名将被拒绝
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 201 {object} util.Response{data=service.EnrollmentResult}
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "已报名该课程"
// @Router /api/courses/{id}/enroll [post]
func (c *ProgressController) Enroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.ParamUint(ctx, "id")
	result, err := c.ProgressService.Enroll(user.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadyEnrolled):
			util.Error(ctx, 409, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, result)
}

// MarkLectureCompleted godoc
// @Summary 标记讲完成
// @Description 记录讲完成事件并触发经验/打卡/成就级联
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param lectureId path int true "讲ID"
// @Success 200 {object} util.Response{data=service.LectureCompletionResult}
// @Failure 403 {object} util.Response "未报名该课程"
// @Failure 404 {object} util.Response "课程或讲不存在"
// @Router /api/courses/{id}/lectures/{lectureId}/complete [post]
func (c *ProgressController) MarkLectureCompleted(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.ParamUint(ctx, "id")
	lectureID := util.ParamUint(ctx, "lectureId")

	result, err := c.ProgressService.MarkLectureCompleted(user.UserID, courseID, lectureID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled):
			util.Error(ctx, 403, err.Error())
		case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrLectureNotFound), errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// GetCourseProgress godoc
// @Summary 获取课程进度
// @Description 当前用户在指定课程的完成进度
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseProgress}
// @Failure 404 {object} util.Response "未报名或课程不存在"
// @Router /api/courses/{id}/progress [get]
func (c *ProgressController) GetCourseProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.ParamUint(ctx, "id")
	progress, err := c.ProgressService.GetCourseProgress(user.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled), errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, progress)
}
