package handler

import (
	"github.com/labstack/echo/v4"

	"campuslink/internal/adapter/api/middleware"
	"campuslink/internal/domain/entity"
	"campuslink/internal/usecase"
	"campuslink/pkg/response"
	"campuslink/pkg/utils"
)

type RoomHandler struct {
	roomUseCase *usecase.RoomUseCase
}

func NewRoomHandler(roomUseCase *usecase.RoomUseCase) *RoomHandler {
	return &RoomHandler{
		roomUseCase: roomUseCase,
	}
}

type createRoomRequest struct {
	Name               string   `json:"name" validate:"required,max=255"`
	ParticipantIDs     []string `json:"participant_ids" validate:"dive,required"`
	RoomType           string   `json:"room_type" validate:"omitempty,oneof=repair academic general"`
	RepairRequestID    *string  `json:"repair_request"`
	AcademicQuestionID *string  `json:"academic_question"`
}

type addParticipantRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *RoomHandler) CreateRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	room, err := h.roomUseCase.CreateRoom(c.Request().Context(), middleware.IdentityFrom(c), usecase.CreateRoomInput{
		Name:               req.Name,
		ParticipantIDs:     req.ParticipantIDs,
		RoomType:           entity.RoomType(req.RoomType),
		RepairRequestID:    req.RepairRequestID,
		AcademicQuestionID: req.AcademicQuestionID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, room)
}

// ListRooms returns the caller's rooms, newest first.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	rooms, total, err := h.roomUseCase.ListRooms(
		c.Request().Context(),
		middleware.IdentityFrom(c),
		c.QueryParam("search"),
		params.PageSize,
		params.Offset,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, rooms, total, params.Page, params.PageSize)
}

func (h *RoomHandler) GetRoom(c echo.Context) error {
	room, err := h.roomUseCase.GetRoom(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

func (h *RoomHandler) AddParticipant(c echo.Context) error {
	var req addParticipantRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	room, err := h.roomUseCase.AddParticipant(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"), req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}
