package service

import (
	"context"
	"course_market_backend/internal/config"
	"course_market_backend/internal/model"
	"course_market_backend/internal/util"
	"course_market_backend/pkg/logger"
	"course_market_backend/pkg/monitoring"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MediaUpload 上传结果；视频附带建议的时长和封面
// swagger:model MediaUpload
type MediaUpload struct {
	Kind            string  `json:"kind"`
	URL             string  `json:"url"`
	MimeType        string  `json:"mimeType"`
	Size            int64   `json:"size"`
	Duration        string  `json:"duration,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
}

type MediaService struct {
	Provider  StorageProvider
	MaxBytes  int64
	probe     func(path string) (*util.VideoInfo, error)
	thumbnail func(videoPath, thumbPath, offset string) error
}

func NewMediaService(provider StorageProvider, cfg *config.StorageConfig) *MediaService {
	return &MediaService{
		Provider:  provider,
		MaxBytes:  cfg.MaxUploadBytes(),
		probe:     util.ProbeVideo,
		thumbnail: util.ExtractThumbnail,
	}
}

// Upload 保存课程封面图片或介绍视频，类型以文件内容为准
func (s *MediaService) Upload(ctx context.Context, caller *Caller, kind string, file io.ReadSeeker, size int64, filename string) (*MediaUpload, error) {
	if err := Authorize(caller, ActionUploadMedia, nil); err != nil {
		return nil, err
	}
	if kind != util.MediaImage && kind != util.MediaVideo {
		return nil, util.ErrInvalidMediaKind
	}
	if size > s.MaxBytes {
		return nil, util.ErrFileTooLarge
	}

	mimeType, err := util.SniffMimeType(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !util.MatchesMediaKind(kind, mimeType) {
		verr := util.NewValidationError()
		verr.Add("file", fmt.Sprintf("must be a %s file, got %s", kind, mimeType))
		return nil, verr
	}

	id := model.GenerateUUID()
	key := fmt.Sprintf("courses/%ss/%s%s", kind, id, strings.ToLower(filepath.Ext(filename)))
	result := &MediaUpload{Kind: kind, MimeType: mimeType, Size: size}

	if kind == util.MediaImage {
		result.URL, err = s.Provider.Upload(ctx, key, file, size, mimeType)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
	} else if err := s.uploadVideo(ctx, id, key, file, result); err != nil {
		return nil, err
	}

	monitoring.MediaUploads.WithLabelValues(kind, s.Provider.Name()).Inc()
	logger.Log.Info("Course media uploaded",
		zap.Uint("userId", caller.ID),
		zap.String("kind", kind),
		zap.String("url", result.URL),
		zap.Int64("size", size))
	return result, nil
}

func (s *MediaService) rollback(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Provider.Delete(ctx, key); err != nil {
		logger.Log.Warn("Failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
	}
}

// uploadVideo 先落盘到临时文件供 ffprobe 读取，探测失败不影响上传
func (s *MediaService) uploadVideo(ctx context.Context, id, key string, file io.Reader, result *MediaUpload) error {
	tmp, err := os.CreateTemp("", "course-video-*"+filepath.Ext(key))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return fmt.Errorf("buffer video: %w", err)
	}
	tmp.Close()

	result.URL, err = s.Provider.UploadFile(ctx, key, tmp.Name(), result.MimeType)
	if err != nil {
		return fmt.Errorf("upload video: %w", err)
	}
	// 客户端已断开，地址不会被保存，删除已上传的视频
	if err := ctx.Err(); err != nil {
		s.rollback(key)
		return fmt.Errorf("upload video: %w", err)
	}

	info, err := s.probe(tmp.Name())
	if err != nil {
		logger.Log.Warn("Failed to probe video", zap.String("key", key), zap.Error(err))
		return nil
	}
	result.DurationSeconds = info.Duration
	result.Duration = util.FormatDuration(info.Duration)

	thumbPath := filepath.Join(os.TempDir(), "course-thumb-"+id+".jpg")
	defer os.Remove(thumbPath)

	offset := "00:00:01"
	if info.Duration < 1 {
		offset = "00:00:00"
	}
	if err := s.thumbnail(tmp.Name(), thumbPath, offset); err != nil {
		logger.Log.Warn("Failed to extract video thumbnail", zap.String("key", key), zap.Error(err))
		return nil
	}
	result.Thumbnail, err = s.Provider.UploadFile(ctx, "courses/thumbnails/"+id+".jpg", thumbPath, "image/jpeg")
	if err != nil {
		logger.Log.Warn("Failed to store video thumbnail", zap.String("key", key), zap.Error(err))
		result.Thumbnail = ""
	}
	return nil
}
