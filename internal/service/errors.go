package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

// 对外文案使用产品语言（西语），与前端展示保持一致
var (
	ErrParamInvalid = errors.New("parámetros inválidos")

	// 权限类：调用者不是该动作的合法参与者
	ErrNotBookingActor     = errors.New("no tienes permisos para acceder a este booking")
	ErrOnlyProviderAccept  = errors.New("solo el proveedor puede aceptar la solicitud")
	ErrOnlyProviderReject  = errors.New("solo el proveedor puede rechazar la solicitud")
	ErrOnlyProviderStart   = errors.New("solo el proveedor puede iniciar el servicio")
	ErrOnlyProviderFinish  = errors.New("solo el proveedor puede completar el servicio")
	ErrOnlyCustomerCreates = errors.New("solo los clientes pueden crear solicitudes")
	ErrNotConvParticipant  = errors.New("no tienes permisos para acceder a esta conversación")

	// 状态冲突类：当前状态下请求的迁移不合法
	ErrInvalidTransition  = errors.New("el estado actual del booking no permite esta acción")
	ErrConversationClosed = errors.New("la conversación está cerrada")

	// 校验类
	ErrOwnService       = errors.New("no puedes reservar tu propio servicio")
	ErrReasonRequired   = errors.New("el motivo de cancelación es obligatorio")
	ErrEmptyMessage     = errors.New("el contenido del mensaje es obligatorio")
	ErrFileRequired     = errors.New("file_url es requerido")
	ErrFileNotSupported = errors.New("tipo de archivo no soportado")

	// 不存在类
	ErrBookingNotFound      = errors.New("booking no encontrado")
	ErrServiceNotFound      = errors.New("servicio no encontrado")
	ErrConversationNotFound = errors.New("conversación no encontrada")

	UnauthorizedError = errors.New("credenciales inválidas")
	UnExpectedError   = errors.New("error interno, inténtalo más tarde")
)

var ErrorMap = map[error]int{
	ErrParamInvalid: BadRequest,

	ErrNotBookingActor:     Forbidden,
	ErrOnlyProviderAccept:  Forbidden,
	ErrOnlyProviderReject:  Forbidden,
	ErrOnlyProviderStart:   Forbidden,
	ErrOnlyProviderFinish:  Forbidden,
	ErrOnlyCustomerCreates: Forbidden,
	ErrNotConvParticipant:  Forbidden,

	ErrInvalidTransition:  BadRequest,
	ErrConversationClosed: BadRequest,

	ErrOwnService:       BadRequest,
	ErrReasonRequired:   BadRequest,
	ErrEmptyMessage:     BadRequest,
	ErrFileRequired:     BadRequest,
	ErrFileNotSupported: BadRequest,

	ErrBookingNotFound:      NotFound,
	ErrServiceNotFound:      NotFound,
	ErrConversationNotFound: NotFound,

	UnauthorizedError: Unauthorized,
	UnExpectedError:   InternalServerError,
}
