package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/japaniel/wordlens/pkg/page"
	_ "github.com/mattn/go-sqlite3"
)

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() {}

func TestIngestHandlesSubmitError(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()
	store := seedStore(t, conn, "apple")

	ingester := NewIngester(store, page.NewFetcher(page.FetchOptions{}))
	// Inject failing pool so first Submit() returns an error
	ingester.PoolFactory = func(workers, queue int) WorkerPoolInterface { return &failingPool{} }

	// Run ingest and expect it to return quickly with the submit error
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ingester.Ingest(ctx, []string{"http://127.0.0.1:1/a", "http://127.0.0.1:1/b"})
	if err == nil || err.Error() != "submit failed" {
		t.Fatalf("expected submit error, got %v", err)
	}
}
