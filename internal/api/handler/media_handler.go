package handler

import (
	"ConectaYa/internal/pkg/consts"
	"ConectaYa/internal/pkg/minio"
	"ConectaYa/internal/pkg/response"
	"ConectaYa/internal/pkg/util"
	"ConectaYa/internal/service"
	log "log/slog"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MediaHandler struct{}

func NewMediaHandler() *MediaHandler {
	return &MediaHandler{}
}

// Upload 聊天附件上传：嗅探真实 MIME，落 MinIO 后返回公网地址
func (s *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	msgType := "file"
	if strings.HasPrefix(contentType, consts.MimePrefixImage) {
		msgType = "image"
	}

	ext := path.Ext(file.Filename)
	objectName := time.Now().Format("2006/01/02/") + uuid.NewString() + ext

	fileKey, err := minio.UploadFile(c.Request.Context(), objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "MinIO upload failed", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	response.Success(c, gin.H{
		"file_url":  minio.GetPublicURL(fileKey),
		"mime_type": contentType,
		"msg_type":  msgType,
		"file_name": file.Filename,
		"size":      file.Size,
	})
}
