package handler

import (
	"github.com/labstack/echo/v4"

	"campuslink/internal/domain/entity"
	"campuslink/internal/usecase"
	"campuslink/pkg/response"
)

// DevTokenHandler provisions local accounts and tokens. It is only routed in
// development.
type DevTokenHandler struct {
	userUseCase *usecase.UserUseCase
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(userUseCase *usecase.UserUseCase) *DevTokenHandler {
	return &DevTokenHandler{
		userUseCase: userUseCase,
	}
}

func SetupDevTokenHandler(userUseCase *usecase.UserUseCase) {
	devTokenHandler = NewDevTokenHandler(userUseCase)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

type createDevUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=student teacher technician admin"`
}

func (h *DevTokenHandler) CreateUser(c echo.Context) error {
	var req createDevUserRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.userUseCase.Register(c.Request().Context(), usecase.RegisterUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     entity.Role(req.Role),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

func (h *DevTokenHandler) IssueToken(c echo.Context) error {
	result, err := h.userUseCase.IssueToken(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
