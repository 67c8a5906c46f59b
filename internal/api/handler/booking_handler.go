package handler

import (
	"ConectaYa/internal/api/dto"
	"ConectaYa/internal/model"
	"ConectaYa/internal/pkg/response"
	"ConectaYa/internal/service"
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// Create 客户创建预约
func (s *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")

	res, err := s.bookingService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Get 预约详情（仅当事人可见）
func (s *BookingHandler) Get(c *gin.Context) {
	bookingID, err := strconv.ParseUint(c.Param("booking_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	res, err := s.bookingService.Get(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// List 我的预约列表：role=customer|provider，可叠加 status 过滤
func (s *BookingHandler) List(c *gin.Context) {
	userID := c.GetUint64("user_id")
	role := c.Query("role")
	status := model.BookingStatus(c.Query("status"))

	res, err := s.bookingService.List(c.Request.Context(), userID, role, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Accept 服务商接受请求
func (s *BookingHandler) Accept(c *gin.Context) {
	s.doAction(c, s.bookingService.Accept)
}

// Reject 服务商拒绝请求，可附带拒绝理由
func (s *BookingHandler) Reject(c *gin.Context) {
	bookingID, err := strconv.ParseUint(c.Param("booking_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var req dto.RejectBookingReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, service.ErrParamInvalid)
			return
		}
	}
	userID := c.GetUint64("user_id")

	res, err := s.bookingService.Reject(c.Request.Context(), userID, bookingID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Start 服务商开始服务
func (s *BookingHandler) Start(c *gin.Context) {
	s.doAction(c, s.bookingService.Start)
}

// Complete 服务商完成服务
func (s *BookingHandler) Complete(c *gin.Context) {
	s.doAction(c, s.bookingService.Complete)
}

// Cancel 取消预约，理由必填
func (s *BookingHandler) Cancel(c *gin.Context) {
	bookingID, err := strconv.ParseUint(c.Param("booking_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var req dto.CancelBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrReasonRequired)
		return
	}
	userID := c.GetUint64("user_id")

	res, err := s.bookingService.Cancel(c.Request.Context(), userID, bookingID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Stats 预约统计：role=customer|provider
func (s *BookingHandler) Stats(c *gin.Context) {
	userID := c.GetUint64("user_id")
	role := c.DefaultQuery("role", "customer")

	res, err := s.bookingService.Stats(c.Request.Context(), userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// doAction 无请求体的状态迁移动作公共入口
func (s *BookingHandler) doAction(c *gin.Context,
	action func(ctx context.Context, userID, bookingID uint64) (*dto.BookingDTO, error)) {
	bookingID, err := strconv.ParseUint(c.Param("booking_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	res, err := action(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
