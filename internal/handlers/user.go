package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/services"
)

type SetAvatarRequest struct {
	FileID uint64 `json:"file_id" binding:"required"`
}

// @Summary 当前用户信息
// @Tags 用户
// @Produce json
// @Success 200 {object} xerr.Response "用户信息"
// @Router /api/v1/users/me [get]
func GetUserProfile(userService services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		user, err := userService.GetProfile(userID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取用户信息成功", user)
	}
}

// @Summary 配额使用情况
// @Tags 用户
// @Produce json
// @Success 200 {object} xerr.Response "已用空间和上限"
// @Router /api/v1/users/quota [get]
func GetQuotaUsage(userService services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		usage, err := userService.GetQuotaUsage(userID)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取配额成功", usage)
	}
}

// @Summary 设置头像
// @Description 将自己的一张图片设为头像，头像文件受删除保护
// @Tags 用户
// @Accept json
// @Produce json
// @Param data body SetAvatarRequest true "图片文件ID"
// @Success 200 {object} xerr.Response "设置成功"
// @Router /api/v1/users/avatar [put]
func SetAvatar(userService services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req SetAvatarRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		if err := userService.SetAvatar(userID, req.FileID); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "头像设置成功", nil)
	}
}

// @Summary 清除头像
// @Tags 用户
// @Produce json
// @Success 200 {object} xerr.Response "清除成功"
// @Router /api/v1/users/avatar [delete]
func ClearAvatar(userService services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		if err := userService.ClearAvatar(userID); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "头像已清除", nil)
	}
}
