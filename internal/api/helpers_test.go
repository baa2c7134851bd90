package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/contact"
	"jobboard/internal/database/dbtest"
	"jobboard/internal/identity"
	"jobboard/internal/listing"
	"jobboard/internal/notify"
	"jobboard/internal/storage"
	"jobboard/internal/taxonomy"
)

type fakeStorage struct {
	uploaded map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStorage) StatObject(_ context.Context, objectKey string) error {
	if _, ok := s.uploaded[objectKey]; !ok {
		return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	}
	return nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://signed.example/" + objectKey + "?sig=1", nil
}

func (s *fakeStorage) ObjectURL(objectKey string) string {
	return "https://files.example/uploads/" + objectKey
}

func (s *fakeStorage) KeyFromURL(raw string) (string, bool) {
	key, ok := strings.CutPrefix(raw, "https://files.example/uploads/")
	return key, ok && key != ""
}

var _ objectStore = (*storage.Client)(nil)

type fakeScanner struct {
	infected bool
}

func (s fakeScanner) Scan(r io.Reader) (bool, error) {
	_, _ = io.Copy(io.Discard, r)
	return !s.infected, nil
}

type capturedNotifier struct {
	notices []notify.Notice
}

func (n *capturedNotifier) NotifyApproved(_ context.Context, notice notify.Notice) error {
	n.notices = append(n.notices, notice)
	return nil
}

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	auth     *auth.AuthService
	storage  *fakeStorage
	notifier *capturedNotifier
}

type serverOption func(*config.Config, *Services)

func withScanner(s VirusScanner) serverOption {
	return func(_ *config.Config, svc *Services) { svc.Scanner = s }
}

func withMetricsSecret(secret string) serverOption {
	return func(cfg *config.Config, _ *Services) { cfg.API.MetricsSecret = secret }
}

// unreachableRedis 指向一个无法连接的地址，用于验证 Redis 故障时的降级路径。
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:0",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := dbtest.New(t)
	authService := auth.NewTestService(t)
	store := newFakeStorage()
	notifier := &capturedNotifier{}

	cfg := &config.Config{
		Auth:   config.AuthConfig{LoginRateLimitPerHour: 10, LoginLockThreshold: 5, LoginLockTTL: time.Minute},
		Upload: config.UploadConfig{MaxBytes: 1 << 20},
	}

	gate := identity.NewGate(db)
	listingOpts := []listing.Option{
		listing.WithLogger(logger),
		listing.WithNotifier(notifier),
		listing.WithGate(gate),
		listing.WithSweepRunner(func(fn func()) { fn() }),
	}
	svc := Services{
		DB:       db,
		Redis:    unreachableRedis(t),
		Auth:     authService,
		Jobs:     listing.NewJobService(db, listingOpts...),
		Seekers:  listing.NewSeekerService(db, listingOpts...),
		Gate:     gate,
		Taxonomy: taxonomy.NewService(db, logger),
		Contacts: contact.NewService(db),
		Storage:  store,
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(cfg, &svc)
	}

	router := NewRouter(cfg, logger)
	RegisterRoutes(router, cfg, svc)

	return &testServer{router: router, db: db, auth: authService, storage: store, notifier: notifier}
}

func (s *testServer) adminToken(t *testing.T, mustChange bool) string {
	t.Helper()
	pair, err := s.auth.GenerateTokenPair(auth.Session{AdminID: 1, Username: "moderator"}, mustChange)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return pair.AccessToken
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d got %d body=%s", status, w.Code, w.Body.String())
	}
}

func validJobBody() map[string]any {
	return map[string]any{
		"title":         "Cook",
		"description":   "Hotel kitchen in Thrissur",
		"company":       "Spice Route",
		"aadharNumber":  "2222-3333-4444",
		"aadharFileUrl": "https://files.example/uploads/aadhaar/2024/06/a.pdf",
		"postedBy":      "Anil",
		"contactEmail":  "hr@spiceroute.example",
	}
}
