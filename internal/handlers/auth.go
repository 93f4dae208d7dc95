package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/services"
	"github.com/vtart/go-gallery/internal/services/verification"
)

type SendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Type  string `json:"type" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
}

// LoginRequest 登录请求结构体
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangeEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
}

type ChangePasswordRequest struct {
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=255"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=255"`
}

// @Summary 发送验证码
// @Description 向邮箱发送验证码，仅支持注册和忘记密码场景
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body SendCodeRequest true "目标邮箱和验证码类型"
// @Success 200 {object} xerr.Response "发送成功"
// @Failure 429 {object} xerr.Response "发送过于频繁"
// @Router /api/v1/auth/send-code [post]
func SendCode(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SendCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		codeType := verification.CodeType(req.Type)
		// 绑定用户的验证码类型必须走认证后的接口
		if codeType != verification.TypeVerifyEmail && codeType != verification.TypeForgotPassword {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "不支持的验证码类型")
			return
		}

		retryAfter, err := authService.SendCode(c.Request.Context(), req.Email, codeType, nil)
		if err != nil {
			if errors.Is(err, xerr.ErrRateLimited) {
				xerr.JSONResponse(c, http.StatusTooManyRequests, xerr.RateLimitedCode,
					xerr.ErrRateLimited.Error(), gin.H{"retry_after_seconds": retryAfter})
				return
			}
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "验证码已发送", nil)
	}
}

// SendBoundCode 发送绑定当前用户的验证码（更改邮箱/修改密码）
// @Summary 发送绑定验证码
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body SendCodeRequest true "目标邮箱和验证码类型"
// @Success 200 {object} xerr.Response "发送成功"
// @Router /api/v1/users/send-code [post]
func SendBoundCode(authService services.AuthService, userService services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req SendCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		codeType := verification.CodeType(req.Type)
		if codeType != verification.TypeChangeEmail && codeType != verification.TypePasswordChange {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "不支持的验证码类型")
			return
		}

		requester, err := userService.GetProfile(userID)
		if err != nil {
			respondError(c, err)
			return
		}

		retryAfter, err := authService.SendCode(c.Request.Context(), req.Email, codeType, requester)
		if err != nil {
			if errors.Is(err, xerr.ErrRateLimited) {
				xerr.JSONResponse(c, http.StatusTooManyRequests, xerr.RateLimitedCode,
					xerr.ErrRateLimited.Error(), gin.H{"retry_after_seconds": retryAfter})
				return
			}
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "验证码已发送", nil)
	}
}

// @Summary 用户注册
// @Description 使用邮箱验证码完成注册
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body RegisterRequest true "注册信息"
// @Success 200 {object} xerr.Response "注册成功"
// @Failure 400 {object} xerr.Response "参数或验证码错误"
// @Failure 409 {object} xerr.Response "用户名或邮箱已存在"
// @Router /api/v1/auth/register [post]
func Register(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		user, err := authService.Register(c.Request.Context(), req.Username, req.Password, req.Email, req.Code, clientMeta(c))
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "注册成功", gin.H{
			"user_id":  user.ID,
			"username": user.Username,
			"email":    user.Email,
		})
	}
}

// @Summary 用户登录
// @Description 用户登录接口
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body LoginRequest true "登录信息"
// @Success 200 {object} xerr.Response "登录成功，返回token"
// @Failure 401 {object} xerr.Response "用户名或密码错误"
// @Router /api/v1/auth/login [post]
func Login(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		token, user, err := authService.Login(req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "登录成功", gin.H{
			"token":    token,
			"user_id":  user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

// @Summary 更改邮箱
// @Description 消费发往新邮箱的验证码后更换绑定邮箱
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body ChangeEmailRequest true "新邮箱和验证码"
// @Success 200 {object} xerr.Response "更改成功"
// @Router /api/v1/users/change-email [post]
func ChangeEmail(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req ChangeEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		if err := authService.ChangeEmail(c.Request.Context(), userID, req.NewEmail, req.Code, clientMeta(c)); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "邮箱更改成功", nil)
	}
}

// @Summary 修改密码
// @Description 消费发往当前邮箱的验证码后修改密码
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body ChangePasswordRequest true "验证码和新密码"
// @Success 200 {object} xerr.Response "修改成功"
// @Router /api/v1/users/change-password [post]
func ChangePassword(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		if err := authService.ChangePassword(c.Request.Context(), userID, req.Code, req.NewPassword, clientMeta(c)); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "密码修改成功", nil)
	}
}

// @Summary 重置密码
// @Description 忘记密码流程，用户名+邮箱+验证码三者共同证明身份
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body ResetPasswordRequest true "重置信息"
// @Success 200 {object} xerr.Response "重置成功"
// @Router /api/v1/auth/reset-password [post]
func ResetPassword(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		if err := authService.ResetPassword(c.Request.Context(), req.Username, req.Email, req.Code, req.NewPassword, clientMeta(c)); err != nil {
			respondError(c, err)
			return
		}
		xerr.Success(c, http.StatusOK, "密码重置成功", nil)
	}
}
