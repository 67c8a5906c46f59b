package api

import "ConectaYa/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	BookingHandler *handler.BookingHandler
	ChatHandler    *handler.ChatHandler
	WSHandler      *handler.WsHandler
	MediaHandler   *handler.MediaHandler
}
