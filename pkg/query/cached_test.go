package query

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/rows"
)

func countingFetcher(calls *int, err error) Fetcher {
	return FetcherFunc(func(ctx context.Context, q string) (rows.ResultSet, error) {
		*calls++
		if err != nil {
			return rows.ResultSet{}, err
		}
		return rows.ResultSet{
			Columns: []string{"a"},
			Rows:    []rows.Row{{"a": "X"}, {"a": nil}},
		}, nil
	})
}

func newCached(t *testing.T, inner Fetcher) *CachedFetcher {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &CachedFetcher{Inner: inner, Cache: c, Source: "test", Logger: log.New(io.Discard)}
}

func TestCachedFetcher(t *testing.T) {
	ctx := context.Background()
	calls := 0
	f := newCached(t, countingFetcher(&calls, nil))

	first, err := f.Fetch(ctx, "SELECT a FROM t")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	second, err := f.Fetch(ctx, "SELECT a\n  FROM t")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 1 {
		t.Errorf("inner fetcher called %d times, want 1", calls)
	}
	if second.Rows[1].Value("a") != rows.Null || second.Rows[0].Value("a") != first.Rows[0].Value("a") {
		t.Errorf("cached rows = %v", second.Rows)
	}

	f.Refresh = true
	f.Fetch(ctx, "SELECT a FROM t")
	if calls != 2 {
		t.Errorf("refresh should bypass the cache, calls = %d", calls)
	}
}

func TestCachedFetcherDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	calls := 0
	f := newCached(t, countingFetcher(&calls, errors.New(errors.ErrCodeUpstream, "boom")))

	for range 2 {
		if _, err := f.Fetch(ctx, "SELECT 1"); !errors.Is(err, errors.ErrCodeUpstream) {
			t.Fatalf("err = %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d, errors must not be cached", calls)
	}
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")
	data := `{"columns": ["db", "n"], "rows": [{"db": "sales", "n": 3}, {"db": null, "n": 1.5}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := FileFetcher{Path: path}.Fetch(context.Background(), "SELECT * FROM anything")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rs.Rows) != 2 || rs.Rows[0].Value("n") != "3" || rs.Rows[1].Value("db") != "null" {
		t.Errorf("rows = %v", rs.Rows)
	}

	_, err = FileFetcher{Path: filepath.Join(dir, "missing.json")}.Fetch(context.Background(), "SELECT 1")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
	if _, err := (FileFetcher{Path: path}).Fetch(context.Background(), ""); !errors.Is(err, errors.ErrCodeInvalidQuery) {
		t.Errorf("empty query: err = %v", err)
	}
}
