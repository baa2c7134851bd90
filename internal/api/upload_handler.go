package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dutchcoders/go-clamd"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"jobboard/internal/api/middleware"
	"jobboard/internal/errcode"
	"jobboard/internal/storage"
)

const (
	uploadKindAadhaar = "aadhaar"
	uploadKindResume  = "resume"

	presignTTL = 15 * time.Minute
)

// 各上传类型允许的 MIME 类型（按内容识别，不信任客户端声明）。
var allowedUploadTypes = map[string][]string{
	uploadKindAadhaar: {"image/jpeg", "image/png", "image/webp", "application/pdf"},
	uploadKindResume: {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
}

type objectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	StatObject(ctx context.Context, objectKey string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	ObjectURL(objectKey string) string
	KeyFromURL(raw string) (string, bool)
}

// VirusScanner 在上传前检查文件内容。
type VirusScanner interface {
	Scan(r io.Reader) (clean bool, err error)
}

// ClamdScanner 使用 clamd 的 INSTREAM 扫描文件。
type ClamdScanner struct {
	client *clamd.Clamd
}

func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

func (s *ClamdScanner) Scan(r io.Reader) (bool, error) {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return false, fmt.Errorf("scan stream: %w", err)
	}
	clean := true
	for result := range results {
		switch result.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			clean = false
		default:
			return false, fmt.Errorf("clamd: %s %s", result.Status, result.Description)
		}
	}
	return clean, nil
}

// UploadHandler 接收身份证明与简历文件并存入对象存储。
type UploadHandler struct {
	storage  objectStore
	scanner  VirusScanner
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadHandler 构造上传处理器；scanner 为 nil 时跳过病毒扫描。
func NewUploadHandler(store objectStore, scanner VirusScanner, maxBytes int64, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{storage: store, scanner: scanner, maxBytes: maxBytes, logger: logger}
}

// UploadAadhaar POST /upload/aadhaar
func (h *UploadHandler) UploadAadhaar(c *gin.Context) { h.upload(c, uploadKindAadhaar) }

// UploadResume POST /upload/resume
func (h *UploadHandler) UploadResume(c *gin.Context) { h.upload(c, uploadKindResume) }

func (h *UploadHandler) upload(c *gin.Context, kind string) {
	logger := middleware.LoggerFromContext(c).With(slog.String("kind", kind))

	// multipart 头部需要额外空间。
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+64*1024)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			BadRequest(c, "file too large")
			return
		}
		BadRequest(c, "file is required")
		return
	}
	if file.Size > h.maxBytes {
		BadRequest(c, "file too large")
		return
	}

	mime, err := detectMIME(file)
	if err != nil {
		Fail(c, errcode.Upload(err, "Upload failed"))
		return
	}
	if !mimeAllowed(kind, mime) {
		logger.Info("upload rejected: unsupported type", slog.String("mime", mime.String()))
		BadRequest(c, "unsupported file type")
		return
	}

	if h.scanner != nil {
		clean, err := h.scan(file)
		if err != nil {
			Fail(c, errcode.Upload(err, "Upload failed"))
			return
		}
		if !clean {
			logger.Warn("upload rejected: malicious file detected")
			BadRequest(c, "malicious file detected")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Fail(c, errcode.Upload(err, "Upload failed"))
		return
	}
	defer reader.Close()

	objectKey := fmt.Sprintf("%s/%s/%s%s", kind, time.Now().UTC().Format("2006/01"), uuid.NewString(), mime.Extension())
	if _, err := h.storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, mime.String()); err != nil {
		Fail(c, errcode.Upload(err, "Upload failed"))
		return
	}

	logger.Info("file uploaded", slog.String("object_key", objectKey), slog.Int64("size", file.Size))
	c.JSON(http.StatusOK, gin.H{"url": h.storage.ObjectURL(objectKey), "key": objectKey})
}

func (h *UploadHandler) scan(file *multipart.FileHeader) (bool, error) {
	reader, err := file.Open()
	if err != nil {
		return false, fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()
	return h.scanner.Scan(reader)
}

// View GET /upload/view?key= 或 ?url=，返回限时访问链接。
func (h *UploadHandler) View(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" && c.Query("url") != "" {
		key, _ = h.storage.KeyFromURL(c.Query("url"))
	}
	if !isValidUploadObjectKey(key) {
		BadRequest(c, "invalid key")
		return
	}

	ctx := c.Request.Context()
	if err := h.storage.StatObject(ctx, key); err != nil {
		if storage.IsNoSuchKey(err) {
			Fail(c, errcode.NotFound("file not found"))
			return
		}
		Fail(c, errcode.Upstream(err, "failed to generate url"))
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(ctx, key, presignTTL)
	if err != nil {
		Fail(c, errcode.Upstream(err, "failed to generate url"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func detectMIME(file *multipart.FileHeader) (*mimetype.MIME, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return nil, fmt.Errorf("detect mime: %w", err)
	}
	return mime, nil
}

func mimeAllowed(kind string, mime *mimetype.MIME) bool {
	for _, allowed := range allowedUploadTypes[kind] {
		if mime.Is(allowed) {
			return true
		}
	}
	return false
}

func isValidUploadObjectKey(key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > 200 {
		return false
	}
	if !strings.HasPrefix(key, uploadKindAadhaar+"/") && !strings.HasPrefix(key, uploadKindResume+"/") {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	return true
}
