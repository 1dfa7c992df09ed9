package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	dto "github.com/vibast-solutions/ms-go-todo/app/dto/http"
	"github.com/vibast-solutions/ms-go-todo/app/service"
)

type PasswordResetController struct {
	resetService *service.PasswordResetService
}

func NewPasswordResetController(resetService *service.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{resetService: resetService}
}

// Request responds identically whether or not the email is registered.
// The issued token travels out of band (mail delivery), never in this
// response.
func (c *PasswordResetController) Request(ctx echo.Context) error {
	var req dto.RequestPasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is required"})
	}

	if _, err := c.resetService.Request(ctx.Request().Context(), req.Email, requestMeta(ctx)); err != nil {
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (c *PasswordResetController) Validate(ctx echo.Context) error {
	var req dto.ValidatePasswordResetTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Token == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token is required"})
	}

	valid, err := c.resetService.Validate(ctx.Request().Context(), req.Token)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.ValidateTokenResponse{Valid: valid})
}

func (c *PasswordResetController) Complete(ctx echo.Context) error {
	var req dto.CompletePasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Token == "" || req.NewPassword == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token and new_password are required"})
	}

	err := c.resetService.Complete(ctx.Request().Context(), req.Token, req.NewPassword, requestMeta(ctx))
	if err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid or expired reset token"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
