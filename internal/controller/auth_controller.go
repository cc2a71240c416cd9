package controller

import (
	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// Register godoc
// @Summary 注册新用户
// @Description 注册并直接返回登录令牌，同时发送邮箱验证链接
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.AuthService.Register(ctx.Request.Context(), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"user": user, "token": token})
}

// Login godoc
// @Summary 用户登录
// @Description 校验邮箱和密码，返回 JWT 令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=object} "登录成功"
// @Failure 401 {object} util.Response "邮箱或密码错误"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.AuthService.Login(req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"user": user, "token": token})
}

// Logout godoc
// @Summary 登出
// @Description 将当前令牌加入黑名单，剩余有效期内不再可用
// @Tags 认证
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response "登出成功"
// @Router /api/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	if err := c.AuthService.Logout(ctx.Request.Context(), claims); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// Me godoc
// @Summary 当前用户信息
// @Tags 认证
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	user, err := c.AuthService.GetCurrentUser(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, user)
}

// VerifyEmail godoc
// @Summary 邮箱验证
// @Description 使用注册时签发的令牌完成邮箱验证
// @Tags 认证
// @Produce  json
// @Param   token query string true "验证令牌"
// @Success 200 {object} util.Response "验证成功"
// @Failure 400 {object} util.Response "验证链接无效或已过期"
// @Router /api/verify-email [get]
func (c *AuthController) VerifyEmail(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		util.BadRequest(ctx, "缺少验证令牌")
		return
	}

	if err := c.AuthService.VerifyEmail(ctx.Request.Context(), token); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"verified": true})
}

// ResendVerification godoc
// @Summary 重发验证邮件
// @Tags 认证
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response "发送成功"
// @Router /api/verify-email/resend [post]
func (c *AuthController) ResendVerification(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	user, err := c.AuthService.GetCurrentUser(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	if err := c.AuthService.SendVerificationEmail(ctx.Request.Context(), user); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
