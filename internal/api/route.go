package api

import (
	"ConectaYa/internal/api/middleware"
	"ConectaYa/internal/model"
	"ConectaYa/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		bookingGroup := apiGroup.Group("/bookings")
		bookingGroup.Use(middleware.AuthMiddleware())
		{
			bookingGroup.GET("", group.BookingHandler.List)
			bookingGroup.GET("/stats", group.BookingHandler.Stats)
			bookingGroup.GET("/:booking_id", group.BookingHandler.Get)

			// 状态机动作
			bookingGroup.POST("/:booking_id/accept", group.BookingHandler.Accept)
			bookingGroup.POST("/:booking_id/reject", group.BookingHandler.Reject)
			bookingGroup.POST("/:booking_id/start", group.BookingHandler.Start)
			bookingGroup.POST("/:booking_id/complete", group.BookingHandler.Complete)
			bookingGroup.POST("/:booking_id/cancel", group.BookingHandler.Cancel)

			// 仅客户可发起预约
			customerGroup := bookingGroup.Group("")
			customerGroup.Use(middleware.CheckRoles(model.RoleCustomer))
			{
				customerGroup.POST("", group.BookingHandler.Create)
			}
		}

		chatGroup := apiGroup.Group("/chat")
		{
			// WebSocket 在 Query 里带 token 自行鉴权
			chatGroup.GET("/ws", group.WSHandler.Connect)

			authGroup := chatGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.GET("/conversations", group.ChatHandler.List)
				authGroup.POST("/conversations", group.ChatHandler.StartConversation)
				authGroup.GET("/conversations/by-booking/:booking_id", group.ChatHandler.GetByBooking)
				authGroup.GET("/conversations/:conversation_id", group.ChatHandler.Get)
				authGroup.DELETE("/conversations/:conversation_id", group.ChatHandler.Delete)

				authGroup.GET("/conversations/:conversation_id/messages", group.ChatHandler.GetMessages)
				authGroup.POST("/conversations/:conversation_id/messages", group.ChatHandler.SendMessage)
				authGroup.GET("/conversations/:conversation_id/messages/search", group.ChatHandler.Search)
				authGroup.PUT("/conversations/:conversation_id/read", group.ChatHandler.MarkRead)
				authGroup.POST("/conversations/:conversation_id/clear-history", group.ChatHandler.ClearHistory)

				authGroup.GET("/unread-count", group.ChatHandler.UnreadCount)
				authGroup.GET("/stats", group.ChatHandler.Stats)
			}
		}

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.Use(middleware.AuthMiddleware())
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
		}
	}

	return r
}
