package util

import (
	"io"
	"net/http"
	"strings"
)

// SniffMimeType 根据文件头判断 MIME 类型，读取后将指针复位
func SniffMimeType(reader io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

// MatchesMediaKind 检查 MIME 类型是否属于 image / video
func MatchesMediaKind(kind, mimeType string) bool {
	switch kind {
	case MediaImage:
		return IsImage(mimeType)
	case MediaVideo:
		return IsVideo(mimeType)
	}
	return false
}

func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeVideo) || mimeType == "application/x-mpegURL"
}
