package controller

import (
	"course_market_backend/internal/service"
	"course_market_backend/internal/util"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/gin-gonic/gin"
)

// IDRequest 以课程 id 为参数的操作
// swagger:model IDRequest
type IDRequest struct {
	ID string `json:"id" binding:"required"`
}

// CourseIDRequest 学员报名/完成课程
// swagger:model CourseIDRequest
type CourseIDRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

// callerFrom 从 JWT claims 构造调用者，匿名请求返回 nil
func callerFrom(ctx *gin.Context) *service.Caller {
	return service.CallerFromClaims(util.GetUserFromContext(ctx))
}

// bindJSON 绑定请求体；字段类型不匹配按字段级校验错误返回
func bindJSON(ctx *gin.Context, obj interface{}) bool {
	err := ctx.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		verr := util.NewValidationError()
		verr.Add(typeErr.Field, "must be "+jsonKind(typeErr.Type))
		util.HandleError(ctx, verr)
		return false
	}
	util.BadRequest(ctx, err.Error())
	return false
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.Ptr:
		return jsonKind(t.Elem())
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Map, reflect.Struct:
		return "an object"
	}
	return "a " + t.String()
}
