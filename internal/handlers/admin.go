package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/services/admin"
	"github.com/vtart/go-gallery/internal/services/verification"
)

type AdminCreateUserRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=64"`
	Password     string `json:"password" binding:"required,min=6,max=255"`
	Email        string `json:"email" binding:"required,email"`
	Role         string `json:"role" binding:"required,oneof=user admin"`
	StorageLimit uint64 `json:"storage_limit"` // 0 表示使用默认配额
}

type SetStorageLimitRequest struct {
	StorageLimit uint64 `json:"storage_limit" binding:"required"`
}

// @Summary 用户列表
// @Tags 管理
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} xerr.Response "用户列表"
// @Router /api/v1/admin/users [get]
func AdminListUsers(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

		users, total, err := adminService.ListUsers(page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取用户列表成功", gin.H{
			"users": users,
			"total": total,
		})
	}
}

// @Summary 创建用户
// @Tags 管理
// @Accept json
// @Produce json
// @Param data body AdminCreateUserRequest true "用户信息"
// @Success 201 {object} xerr.Response "创建成功"
// @Router /api/v1/admin/users [post]
func AdminCreateUser(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdminCreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		user, err := adminService.CreateUser(req.Username, req.Password, req.Email, req.Role, req.StorageLimit)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusCreated, "用户创建成功", user)
	}
}

// @Summary 调整用户配额
// @Description 新上限低于已用空间时拒绝
// @Tags 管理
// @Accept json
// @Produce json
// @Param user_id path int true "用户ID"
// @Param data body SetStorageLimitRequest true "新配额（字节）"
// @Success 200 {object} xerr.Response "调整成功"
// @Failure 400 {object} xerr.Response "新容量不能小于已使用容量"
// @Router /api/v1/admin/users/{user_id}/storage-limit [put]
func AdminSetStorageLimit(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parsePathID(c, "user_id")
		if !ok {
			return
		}

		var req SetStorageLimitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		if err := adminService.SetStorageLimit(userID, req.StorageLimit); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "配额调整成功", nil)
	}
}

// @Summary 全站存储统计
// @Tags 管理
// @Produce json
// @Success 200 {object} xerr.Response "存储统计"
// @Router /api/v1/admin/storage-stats [get]
func AdminStorageStats(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := adminService.GetStorageStats()
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取存储统计成功", stats)
	}
}

// @Summary 验证码统计
// @Tags 管理
// @Produce json
// @Param email query string true "邮箱"
// @Param type query string true "验证码类型"
// @Success 200 {object} xerr.Response "验证码统计"
// @Router /api/v1/admin/codes/stats [get]
func AdminCodeStats(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		codeType := verification.CodeType(c.Query("type"))
		if email == "" {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "email is required")
			return
		}

		stats, err := adminService.GetCodeStats(c.Request.Context(), email, codeType)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取验证码统计成功", stats)
	}
}

// @Summary 验证码审计记录
// @Tags 管理
// @Produce json
// @Param email query string true "邮箱"
// @Param type query string true "验证码类型"
// @Success 200 {object} xerr.Response "审计记录"
// @Router /api/v1/admin/codes/audit [get]
func AdminCodeAudit(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		codeType := verification.CodeType(c.Query("type"))
		if email == "" {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "email is required")
			return
		}

		trail, err := adminService.GetCodeAuditTrail(c.Request.Context(), email, codeType)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "获取审计记录成功", trail)
	}
}

// @Summary 清除验证码
// @Tags 管理
// @Produce json
// @Param email query string true "邮箱"
// @Param type query string true "验证码类型"
// @Success 200 {object} xerr.Response "清除数量"
// @Router /api/v1/admin/codes [delete]
func AdminPurgeCodes(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		codeType := verification.CodeType(c.Query("type"))
		if email == "" {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "email is required")
			return
		}

		removed, err := adminService.PurgeCodes(c.Request.Context(), email, codeType)
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "验证码已清除", gin.H{"removed": removed})
	}
}

// @Summary 立即清理过期验证码
// @Tags 管理
// @Produce json
// @Success 200 {object} xerr.Response "清理数量"
// @Router /api/v1/admin/codes/sweep [post]
func AdminSweepCodes(adminService admin.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		removed, err := adminService.SweepCodes(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "过期验证码清理完成", gin.H{"removed": removed})
	}
}
