package controller

import (
	"course_market_backend/internal/service"
	"course_market_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	CourseService *service.CourseService
}

func NewAdminController(courseService *service.CourseService) *AdminController {
	return &AdminController{CourseService: courseService}
}

// ListUnpublished godoc
// @Summary 待审核课程
// @Tags 管理员
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/admin/unpublished-courses [get]
func (c *AdminController) ListUnpublished(ctx *gin.Context) {
	courses, err := c.CourseService.ListUnpublishedCourses(ctx.Request.Context(), callerFrom(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// ApproveCourse godoc
// @Summary 审核通过并发布课程
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDRequest true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/admin/approve-course [post]
func (c *AdminController) ApproveCourse(ctx *gin.Context) {
	var req IDRequest
	if !bindJSON(ctx, &req) {
		return
	}

	course, err := c.CourseService.ApproveCourse(ctx.Request.Context(), callerFrom(ctx), req.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除任意课程
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDRequest true "课程ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/delete-course [post]
func (c *AdminController) DeleteCourse(ctx *gin.Context) {
	var req IDRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.CourseService.DeleteCourse(ctx.Request.Context(), callerFrom(ctx), req.ID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": req.ID})
}

// ToggleVisibility godoc
// @Summary 上架/下架任意课程
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDRequest true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/admin/toggle-visibility [post]
func (c *AdminController) ToggleVisibility(ctx *gin.Context) {
	var req IDRequest
	if !bindJSON(ctx, &req) {
		return
	}

	course, err := c.CourseService.ToggleVisibility(ctx.Request.Context(), callerFrom(ctx), req.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Stats godoc
// @Summary 平台统计
// @Tags 管理员
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.AdminStats}
// @Router /api/admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.CourseService.AdminStats(ctx.Request.Context(), callerFrom(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
