package handler

import (
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, user)
}

// LoginReq 登录请求
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, result)
}

// Me 当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.GetCurrentUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}

// UpdateProfile 更新个人资料
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, user)
}

// ChangePasswordReq 修改密码请求
type ChangePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "password changed"})
}

// Logout 登出，当前Token的jti进入黑名单
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, _ := c.Get("token_jti")
	exp, _ := c.Get("token_exp")
	jtiStr, _ := jti.(string)
	expTime, ok := exp.(time.Time)
	if !ok {
		expTime = time.Now()
	}
	if err := h.svc.Logout(c.Request.Context(), jtiStr, expTime); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "logged out"})
}
