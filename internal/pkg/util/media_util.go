package util

import (
	"io"
	"net/http"
)

// GetSafeContentType 通过前 512 字节嗅探真实的 MIME 类型，
// 不信任客户端上报的 Content-Type。读完后把读取位置拨回起点。
func GetSafeContentType(reader io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := reader.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
