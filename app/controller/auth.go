package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	dto "github.com/vibast-solutions/ms-go-todo/app/dto/http"
	"github.com/vibast-solutions/ms-go-todo/app/service"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Join(ctx echo.Context) error {
	var req dto.JoinRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
	}

	result, err := c.authService.Join(ctx.Request().Context(), req.Email, req.Password, requestMeta(ctx))
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "email already registered"})
		}
		if errors.Is(err, service.ErrInvalidEmail) || errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, dto.NewAuthResponse(result))
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
	}

	result, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password, requestMeta(ctx))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewAuthResponse(result))
}

func (c *AuthController) Refresh(ctx echo.Context) error {
	var req dto.RefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.RefreshToken == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "refresh_token is required"})
	}

	result, err := c.authService.Refresh(ctx.Request().Context(), req.RefreshToken, requestMeta(ctx))
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired refresh token"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewAuthResponse(result))
}

func (c *AuthController) Logout(ctx echo.Context) error {
	var req dto.LogoutRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.RefreshToken == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "refresh_token is required"})
	}

	userID, ok := ctx.Get("user_id").(string)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	if err := c.authService.Logout(ctx.Request().Context(), userID, req.RefreshToken); err != nil {
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func requestMeta(ctx echo.Context) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: ctx.RealIP(),
		UserAgent: ctx.Request().UserAgent(),
	}
}
