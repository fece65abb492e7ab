package query

import (
	"context"
	"os"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/rows"
)

// Fetcher runs a query and returns its result set. Implementations must not
// return a partial result together with an error.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (rows.ResultSet, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, query string) (rows.ResultSet, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, query string) (rows.ResultSet, error) {
	return f(ctx, query)
}

// FileFetcher serves a fixed result set from a JSON file in the
// {"columns": [...], "rows": [...]} format. The query is validated but
// otherwise ignored, which makes it useful for offline work and tests.
type FileFetcher struct {
	Path string
}

// Fetch reads and decodes the file.
func (f FileFetcher) Fetch(_ context.Context, query string) (rows.ResultSet, error) {
	if err := errors.ValidateQuery(query); err != nil {
		return rows.ResultSet{}, err
	}
	fh, err := os.Open(f.Path)
	if os.IsNotExist(err) {
		return rows.ResultSet{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "result file %s not found", f.Path)
	}
	if err != nil {
		return rows.ResultSet{}, err
	}
	defer fh.Close()

	rs, err := rows.Decode(fh)
	if err != nil {
		return rows.ResultSet{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", f.Path)
	}
	return rs, nil
}
