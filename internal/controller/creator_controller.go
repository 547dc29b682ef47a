package controller

import (
	"course_market_backend/internal/service"
	"course_market_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CreatorController struct {
	CourseService *service.CourseService
	MediaService  *service.MediaService
}

func NewCreatorController(courseService *service.CourseService, mediaService *service.MediaService) *CreatorController {
	return &CreatorController{
		CourseService: courseService,
		MediaService:  mediaService,
	}
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 新课程始终为草稿，需管理员审核后发布
// @Tags 创作者
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response "字段校验失败"
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/creator/courses [post]
func (c *CreatorController) CreateCourse(ctx *gin.Context) {
	var req service.CourseRequest
	if !bindJSON(ctx, &req) {
		return
	}

	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), callerFrom(ctx), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// ListCourses godoc
// @Summary 我的课程
// @Tags 创作者
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/creator/courses [get]
func (c *CreatorController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.ListCoursesForCreator(ctx.Request.Context(), callerFrom(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// UpdateCourse godoc
// @Summary 编辑课程
// @Description 不改变发布状态
// @Tags 创作者
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Param   body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/creator/courses/{id} [put]
func (c *CreatorController) UpdateCourse(ctx *gin.Context) {
	var req service.CourseRequest
	if !bindJSON(ctx, &req) {
		return
	}

	course, err := c.CourseService.UpdateCourse(ctx.Request.Context(), callerFrom(ctx), ctx.Param("id"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除自己的课程
// @Tags 创作者
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDRequest true "课程ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/creator/delete-course [post]
func (c *CreatorController) DeleteCourse(ctx *gin.Context) {
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
// @Summary 上架/下架课程
// @Description 只能重新上架已审核过的课程
// @Tags 创作者
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IDRequest true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 403 {object} util.Response
// @Router /api/creator/toggle-visibility [post]
func (c *CreatorController) ToggleVisibility(ctx *gin.Context) {
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

// UploadMedia godoc
// @Summary 上传课程封面或介绍视频
// @Description 视频会尝试读取时长并生成封面
// @Tags 创作者
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param kind formData string true "image 或 video" Enums(image, video)
// @Param file formData file true "文件"
// @Success 201 {object} util.Response{data=service.MediaUpload}
// @Failure 400 {object} util.Response
// @Failure 413 {object} util.Response
// @Router /api/creator/uploads [post]
func (c *CreatorController) UploadMedia(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	upload, err := c.MediaService.Upload(ctx.Request.Context(), callerFrom(ctx), ctx.PostForm("kind"), file, header.Size, header.Filename)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, upload)
}
