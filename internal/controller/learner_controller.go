package controller

import (
	"course_market_backend/internal/service"
	"course_market_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type LearnerController struct {
	EnrollmentService *service.EnrollmentService
}

func NewLearnerController(enrollmentService *service.EnrollmentService) *LearnerController {
	return &LearnerController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 报名课程
// @Description 重复报名返回已有记录
// @Tags 学员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CourseIDRequest true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment} "新报名"
// @Success 200 {object} util.Response{data=model.Enrollment} "已报名"
// @Failure 404 {object} util.Response "课程不存在或未发布"
// @Router /api/learner/enroll [post]
func (c *LearnerController) Enroll(ctx *gin.Context) {
	var req CourseIDRequest
	if !bindJSON(ctx, &req) {
		return
	}

	enrollment, created, err := c.EnrollmentService.Enroll(ctx.Request.Context(), callerFrom(ctx), req.CourseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if created {
		util.Created(ctx, enrollment)
		return
	}
	ctx.JSON(http.StatusOK, util.Response{Code: http.StatusOK, Message: "already enrolled", Data: enrollment})
}

// RecordProgress godoc
// @Summary 标记课程完成
// @Tags 学员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CourseIDRequest true "课程ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Router /api/learner/progress [post]
func (c *LearnerController) RecordProgress(ctx *gin.Context) {
	var req CourseIDRequest
	if !bindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.EnrollmentService.RecordCompletion(ctx.Request.Context(), callerFrom(ctx), req.CourseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// ListEnrollments godoc
// @Summary 我的报名
// @Tags 学员
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.EnrollmentList}
// @Router /api/learner/enrollments [get]
func (c *LearnerController) ListEnrollments(ctx *gin.Context) {
	list, err := c.EnrollmentService.ListEnrollments(ctx.Request.Context(), callerFrom(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
