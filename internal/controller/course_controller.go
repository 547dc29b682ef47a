package controller

import (
	"course_market_backend/internal/model"
	"course_market_backend/internal/service"
	"course_market_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CourseController 公开课程目录
type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// ListCourses godoc
// @Summary 已发布课程列表
// @Description 支持按分类、难度、价格区间和关键字筛选，按创建时间倒序
// @Tags 课程
// @Produce  json
// @Param category query string false "分类"
// @Param difficulty query string false "难度" Enums(BEGINNER, INTERMEDIATE, ADVANCED)
// @Param minPrice query number false "最低价格"
// @Param maxPrice query number false "最高价格"
// @Param search query string false "标题/简介/讲师关键字"
// @Success 200 {object} util.Response{data=[]model.Course}
// @Failure 400 {object} util.Response
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	var filter model.CourseFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	courses, err := c.CourseService.ListPublishedCourses(ctx.Request.Context(), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 未发布课程仅创作者本人和管理员可见
// @Tags 课程
// @Produce  json
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.GetCourse(ctx.Request.Context(), callerFrom(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}
