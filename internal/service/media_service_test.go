package service

import (
	"bytes"
	"context"
	"course_market_backend/internal/config"
	"course_market_backend/internal/model"
	"course_market_backend/internal/util"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	mp4Header = append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 64)...)
)

func newMediaService(t *testing.T) (*MediaService, string) {
	t.Helper()
	root := t.TempDir()
	s := NewMediaService(&LocalStorageProvider{Root: root}, &config.StorageConfig{MaxUploadMB: 1})
	return s, root
}

var creatorCaller = &Caller{ID: 7, Name: "grace", Role: model.Creator}

func TestUploadImage(t *testing.T) {
	s, root := newMediaService(t)

	res, err := s.Upload(context.Background(), creatorCaller, util.MediaImage, bytes.NewReader(pngHeader), int64(len(pngHeader)), "Cover.PNG")
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.MimeType)
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/courses/images/"))
	assert.True(t, strings.HasSuffix(res.URL, ".png"))

	stored, err := os.ReadFile(filepath.Join(root, strings.TrimPrefix(res.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)
}

func TestUploadVideoProbesDuration(t *testing.T) {
	s, root := newMediaService(t)
	s.probe = func(path string) (*util.VideoInfo, error) {
		return &util.VideoInfo{Duration: 3900}, nil
	}
	s.thumbnail = func(videoPath, thumbPath, offset string) error {
		assert.Equal(t, "00:00:01", offset)
		return os.WriteFile(thumbPath, []byte("jpeg"), 0644)
	}

	res, err := s.Upload(context.Background(), creatorCaller, util.MediaVideo, bytes.NewReader(mp4Header), int64(len(mp4Header)), "intro.mp4")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", res.MimeType)
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/courses/videos/"))
	assert.Equal(t, "1h 5m", res.Duration)
	assert.True(t, strings.HasPrefix(res.Thumbnail, "/uploads/courses/thumbnails/"))

	_, err = os.Stat(filepath.Join(root, strings.TrimPrefix(res.Thumbnail, "/uploads/")))
	assert.NoError(t, err)
}

func TestUploadVideoProbeFailureIsNotFatal(t *testing.T) {
	s, _ := newMediaService(t)
	s.probe = func(string) (*util.VideoInfo, error) { return nil, errors.New("ffprobe missing") }

	res, err := s.Upload(context.Background(), creatorCaller, util.MediaVideo, bytes.NewReader(mp4Header), int64(len(mp4Header)), "intro.mp4")
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)
	assert.Empty(t, res.Duration)
	assert.Empty(t, res.Thumbnail)
}

func TestUploadRejects(t *testing.T) {
	s, _ := newMediaService(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, nil, util.MediaImage, bytes.NewReader(pngHeader), 10, "a.png")
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	learner := &Caller{ID: 1, Role: model.Learner}
	_, err = s.Upload(ctx, learner, util.MediaImage, bytes.NewReader(pngHeader), 10, "a.png")
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = s.Upload(ctx, creatorCaller, "audio", bytes.NewReader(pngHeader), 10, "a.png")
	assert.ErrorIs(t, err, util.ErrInvalidMediaKind)

	_, err = s.Upload(ctx, creatorCaller, util.MediaImage, bytes.NewReader(pngHeader), 2<<20, "a.png")
	assert.ErrorIs(t, err, util.ErrFileTooLarge)

	// 扩展名是 mp4 但内容是图片
	_, err = s.Upload(ctx, creatorCaller, util.MediaVideo, bytes.NewReader(pngHeader), 10, "a.mp4")
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "file")
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	p := &LocalStorageProvider{Root: t.TempDir()}
	_, err := p.Upload(context.Background(), "../../etc/passwd", bytes.NewReader([]byte("x")), 1, "text/plain")
	assert.Error(t, err)
}

func TestNewStorageProviderDefaultsToLocal(t *testing.T) {
	p := NewStorageProvider(&config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()})
	assert.Equal(t, util.StorageLocal, p.Name())
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(key, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	args := m.Called(key, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Delete(ctx context.Context, key string) error {
	return m.Called(key).Error(0)
}

func (m *mockProvider) GetURL(key string) string {
	return m.Called(key).String(0)
}

func TestUploadImageUsesProvider(t *testing.T) {
	provider := new(mockProvider)
	isImageKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "courses/images/") && strings.HasSuffix(key, ".png")
	})
	provider.On("Upload", isImageKey, int64(len(pngHeader)), "image/png").
		Return("https://cdn.example.com/cover.png", nil).Once()

	s := NewMediaService(provider, &config.StorageConfig{})
	res, err := s.Upload(context.Background(), creatorCaller, util.MediaImage, bytes.NewReader(pngHeader), int64(len(pngHeader)), "cover.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cover.png", res.URL)
	provider.AssertExpectations(t)
}

func TestUploadVideoProviderFailure(t *testing.T) {
	provider := new(mockProvider)
	provider.On("UploadFile", mock.Anything, "video/mp4").Return("", errors.New("bucket unavailable")).Once()

	s := NewMediaService(provider, &config.StorageConfig{})
	_, err := s.Upload(context.Background(), creatorCaller, util.MediaVideo, bytes.NewReader(mp4Header), int64(len(mp4Header)), "intro.mp4")
	assert.Error(t, err)
	provider.AssertExpectations(t)
}

func TestUploadVideoRemovedWhenClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := new(mockProvider)
	provider.On("UploadFile", mock.Anything, "video/mp4").
		Run(func(mock.Arguments) { cancel() }).
		Return("https://cdn.example.com/intro.mp4", nil).Once()
	isVideoKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "courses/videos/") && strings.HasSuffix(key, ".mp4")
	})
	provider.On("Delete", isVideoKey).Return(nil).Once()

	s := NewMediaService(provider, &config.StorageConfig{})
	s.probe = func(string) (*util.VideoInfo, error) {
		t.Fatal("probe must not run after cancellation")
		return nil, nil
	}

	_, err := s.Upload(ctx, creatorCaller, util.MediaVideo, bytes.NewReader(mp4Header), int64(len(mp4Header)), "intro.mp4")
	assert.ErrorIs(t, err, context.Canceled)
	provider.AssertExpectations(t)
}
