package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	appdto "github.com/vibast-solutions/ms-go-todo/app/dto"
	dto "github.com/vibast-solutions/ms-go-todo/app/dto/http"
	"github.com/vibast-solutions/ms-go-todo/app/service"
)

type TaskController struct {
	taskService *service.TaskService
}

func NewTaskController(taskService *service.TaskService) *TaskController {
	return &TaskController{taskService: taskService}
}

func (c *TaskController) Create(ctx echo.Context) error {
	var req dto.CreateTaskRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	userID, ok := ctx.Get("user_id").(string)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	task, err := c.taskService.Create(ctx.Request().Context(), userID, req.Title, req.Description)
	if err != nil {
		if isTaskValidationErr(err) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, dto.NewTaskResponse(task))
}

func (c *TaskController) Get(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(string)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	task, err := c.taskService.Get(ctx.Request().Context(), userID, ctx.Param("taskId"))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (c *TaskController) Update(ctx echo.Context) error {
	var req dto.UpdateTaskRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	userID, ok := ctx.Get("user_id").(string)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	patch := appdto.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}

	task, err := c.taskService.Update(ctx.Request().Context(), userID, ctx.Param("taskId"), patch)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
		}
		if isTaskValidationErr(err) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (c *TaskController) Delete(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(string)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	if err := c.taskService.Delete(ctx.Request().Context(), userID, ctx.Param("taskId")); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *TaskController) Search(ctx echo.Context) error {
	var req dto.SearchTasksRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid query parameters"})
	}

	userID, ok := ctx.Get("user_id").(string)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	query := appdto.TaskQuery{
		Search: req.Search,
		Status: req.Status,
		Page:   req.Page,
		Limit:  req.Limit,
	}

	var err error
	if query.CreatedFrom, err = parseTimeParam(req.CreatedFrom); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid created_from timestamp"})
	}
	if query.CreatedTo, err = parseTimeParam(req.CreatedTo); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid created_to timestamp"})
	}
	if query.CompletedFrom, err = parseTimeParam(req.CompletedFrom); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid completed_from timestamp"})
	}
	if query.CompletedTo, err = parseTimeParam(req.CompletedTo); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid completed_to timestamp"})
	}

	page, err := c.taskService.Search(ctx.Request().Context(), userID, query)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewTaskPageResponse(page))
}

func isTaskValidationErr(err error) bool {
	return errors.Is(err, service.ErrTitleRequired) ||
		errors.Is(err, service.ErrTitleTooLong) ||
		errors.Is(err, service.ErrDescriptionTooLong) ||
		errors.Is(err, service.ErrInvalidStatus)
}

func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
