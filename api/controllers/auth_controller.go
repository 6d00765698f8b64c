/*
 * @module api/controllers/auth_controller
 * @description 认证控制器，提供注册、登录与当前用户查询
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow 请求接收 -> 参数解析 -> 认证服务 -> 响应返回
 * @rules 邮箱重复返回 400，凭证错误返回 401
 * @dependencies github.com/go-chi/render, service/auth
 * @refs service/auth/auth_service.go, api/middleware/auth.go
 */

package controllers

import (
	"errors"
	"net/http"

	"watchtower-service/api/middleware"
	"watchtower-service/service/auth"
)

// AuthController 认证控制器
type AuthController struct {
	service *auth.Service
}

// NewAuthController 创建认证控制器实例
func NewAuthController(service *auth.Service) *AuthController {
	return &AuthController{service: service}
}

// Register 用户注册
// @Summary 用户注册
// @Description 注册新用户并返回访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body auth.RegisterInput true "注册信息"
// @Success 200 {object} APIResponse{data=auth.TokenResponse}
// @Failure 400 {object} APIResponse
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		reply(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	token, err := c.service.Register(r.Context(), input)
	switch {
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrInvalidInput):
		reply(w, r, BadRequestResponse(err.Error(), nil))
	case err != nil:
		reply(w, r, InternalErrorResponse("注册失败", err))
	default:
		reply(w, r, SuccessResponse("注册成功", token))
	}
}

// Login 用户登录
// @Summary 用户登录
// @Description 校验邮箱密码并返回访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body auth.LoginInput true "登录信息"
// @Success 200 {object} APIResponse{data=auth.TokenResponse}
// @Failure 401 {object} APIResponse
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		reply(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	token, err := c.service.Login(r.Context(), input)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		reply(w, r, UnauthorizedResponse(err.Error(), nil))
	case err != nil:
		reply(w, r, InternalErrorResponse("登录失败", err))
	default:
		reply(w, r, SuccessResponse("登录成功", token))
	}
}

// Me 当前用户
// @Summary 获取当前用户
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.User}
// @Failure 401 {object} APIResponse
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		reply(w, r, UnauthorizedResponse("Not authenticated", nil))
		return
	}

	user, err := c.service.Me(r.Context(), claims.UserID)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		reply(w, r, UnauthorizedResponse(err.Error(), nil))
	case err != nil:
		reply(w, r, InternalErrorResponse("获取用户失败", err))
	default:
		reply(w, r, SuccessResponse("获取用户成功", user))
	}
}
