package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/creation-studio/config"
	"github.com/d60-Lab/creation-studio/internal/model"
	"github.com/d60-Lab/creation-studio/internal/provider"
	"github.com/d60-Lab/creation-studio/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Creation{}, &model.UsageLedger{}))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type fakeText struct {
	mu      sync.Mutex
	out     string
	err     error
	block   bool
	calls   int
	lastReq provider.TextRequest
}

func (f *fakeText) Generate(ctx context.Context, req provider.TextRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.out, f.err
}

type fakeImages struct{ err error }

func (f *fakeImages) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + prompt), nil
}

type fakeHost struct {
	uploads []provider.UploadOptions
	err     error
}

func (f *fakeHost) Upload(ctx context.Context, r io.Reader, opts provider.UploadOptions) (*provider.HostedImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, opts)
	return &provider.HostedImage{
		PublicID:  opts.Folder + "/img1",
		SecureURL: "https://img.example.test/" + opts.Folder + "/img1.png",
	}, nil
}

func (f *fakeHost) TransformURL(publicID, transformation string) (string, error) {
	return "https://img.example.test/" + transformation + "/" + publicID, nil
}

type fakePDF struct {
	text string
	err  error
}

func (f *fakePDF) ExtractText(ctx context.Context, data []byte) (string, error) {
	return f.text, f.err
}

type testEnv struct {
	db        *gorm.DB
	ledger    repository.UsageLedger
	repo      repository.CreationRepository
	creations CreationService
	gate      *UsageGate
	text      *fakeText
	host      *fakeHost
	pdf       *fakePDF
	gen       GenerationService
}

var testTimeouts = config.TimeoutConfig{
	Ledger:     time.Second,
	Storage:    time.Second,
	TextGen:    100 * time.Millisecond,
	ImageGen:   time.Second,
	Upload:     time.Second,
	PDFExtract: time.Second,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	env := &testEnv{
		db:     db,
		ledger: repository.NewDBUsageLedger(db),
		repo:   repository.NewCreationRepository(db),
		text:   &fakeText{out: longArticle()},
		host:   &fakeHost{},
		pdf:    &fakePDF{text: "Jane Doe, Go engineer"},
	}
	env.creations = NewCreationService(env.repo, time.Second, FeedRetry{MaxAttempts: 2, InitialBackoff: time.Millisecond})
	env.gate = NewUsageGate(env.ledger, time.Second)
	env.gen = NewGenerationService(env.creations, env.ledger, Providers{
		Text:   env.text,
		Images: &fakeImages{},
		Host:   env.host,
		PDF:    env.pdf,
	}, testTimeouts, 10)
	return env
}

func longArticle() string {
	b := make([]byte, 200)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func (e *testEnv) usage(t *testing.T, userID string) int {
	t.Helper()
	n, _, err := e.ledger.Get(context.Background(), userID)
	require.NoError(t, err)
	return n
}

func (e *testEnv) caller(t *testing.T, userID string, plans ...string) Caller {
	t.Helper()
	id := identity(userID, plans...)
	u, err := e.gate.Resolve(context.Background(), id)
	require.NoError(t, err)
	return Caller{UserID: userID, Usage: u}
}

func (e *testEnv) seedUsage(t *testing.T, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.ledger.Reserve(context.Background(), userID, 1000)
		require.NoError(t, err)
	}
}

func (e *testEnv) creationsOf(t *testing.T, userID string) []CreationView {
	t.Helper()
	list, err := e.creations.ListMine(context.Background(), userID)
	require.NoError(t, err)
	return list
}

var errBoom = errors.New("boom")
