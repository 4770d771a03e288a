package controller

import (
	"errors"
	"strconv"

	"coursemarket_backend/internal/service"
	"coursemarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// ListCourses godoc
// @Summary 课程列表
// @Description 分页获取已发布课程
// @Tags 课程
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	courses, total, err := c.CourseService.ListCourses(page, limit, true)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  courses,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetCourse godoc
// @Summary 课程详情
// @Description 课程及其章节/讲结构，总讲数与总时长为派生值
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseDetail}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id := util.ParamUint(ctx, "id")
	detail, err := c.CourseService.GetCourse(id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, detail)
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 教师创建课程及嵌套章节/讲
// @Tags 课程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CourseRequest true "课程内容"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response "字段校验失败"
// @Router /api/teacher/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.CreateCourse(user.UserID, req)
	if err != nil {
		var ve *util.ValidationError
		if errors.As(err, &ve) {
			util.BadRequest(ctx, ve.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Description 替换课程元信息与章节结构，仅限讲师本人
// @Tags 课程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param body body service.CourseRequest true "课程内容"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/teacher/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	courseID := util.ParamUint(ctx, "id")
	course, err := c.CourseService.UpdateCourse(courseID, user.UserID, req)
	if err != nil {
		var ve *util.ValidationError
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.As(err, &ve):
			util.BadRequest(ctx, ve.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, course)
}

// PublishCourse godoc
// @Summary 发布课程
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/teacher/courses/{id}/publish [post]
func (c *CourseController) PublishCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.ParamUint(ctx, "id")
	if err := c.CourseService.PublishCourse(courseID, user.UserID); err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"published": true})
}

// GetInstructorDashboard godoc
// @Summary 讲师课程概览
// @Description 讲师名下课程及报名人数
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.InstructorCourseStats}
// @Router /api/teacher/dashboard [get]
func (c *CourseController) GetInstructorDashboard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.CourseService.GetInstructorDashboard(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
