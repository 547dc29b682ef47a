package service

import (
	"course_market_backend/internal/model"
	"course_market_backend/internal/util"
)

// Caller 已验证的调用者身份，来自 JWT
type Caller struct {
	ID   uint
	Name string
	Role model.UserRole
}

func CallerFromClaims(claims *util.Claims) *Caller {
	if claims == nil {
		return nil
	}
	return &Caller{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == model.Admin
}

// Owns 调用者是否为课程创作者本人
func (c *Caller) Owns(course *model.Course) bool {
	return c != nil && course != nil && c.Role == model.Creator && course.CreatorID == c.ID
}

type Action string

const (
	ActionCreateCourse     Action = "course:create"
	ActionListOwnCourses   Action = "course:list-own"
	ActionListUnpublished  Action = "course:list-unpublished"
	ActionApproveCourse    Action = "course:approve"
	ActionUpdateCourse     Action = "course:update"
	ActionDeleteCourse     Action = "course:delete"
	ActionToggleVisibility Action = "course:toggle-visibility"
	ActionViewCourse       Action = "course:view"
	ActionUploadMedia      Action = "course:upload-media"
	ActionEnroll           Action = "enrollment:enroll"
	ActionRecordCompletion Action = "enrollment:complete"
	ActionListEnrollments  Action = "enrollment:list"
	ActionViewStats        Action = "admin:stats"
)

// Authorize 集中的授权判断，每个服务操作开始时调用。
// course 只在针对具体课程的操作中需要。
// nil caller 返回 ErrUnauthorized，角色或归属不符返回 ErrForbidden。
func Authorize(caller *Caller, action Action, course *model.Course) error {
	if action == ActionViewCourse {
		if course != nil && (course.IsPublished || caller.IsAdmin() || caller.Owns(course)) {
			return nil
		}
		return util.ErrForbidden
	}

	if caller == nil || caller.ID == 0 || !caller.Role.Valid() {
		return util.ErrUnauthorized
	}

	switch action {
	case ActionCreateCourse, ActionListOwnCourses:
		if caller.Role == model.Creator {
			return nil
		}
	case ActionUploadMedia:
		if caller.Role == model.Creator || caller.IsAdmin() {
			return nil
		}
	case ActionListUnpublished, ActionApproveCourse, ActionViewStats:
		if caller.IsAdmin() {
			return nil
		}
	case ActionUpdateCourse, ActionDeleteCourse, ActionToggleVisibility:
		if caller.IsAdmin() || caller.Owns(course) {
			return nil
		}
	case ActionEnroll, ActionRecordCompletion, ActionListEnrollments:
		return nil
	}
	return util.ErrForbidden
}
