package walker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/pkg/types"
)

var errNilHive = errors.New("nil hive")

// Result is the outcome of one hive in WalkAll.
type Result struct {
	Hive        string
	WalkID      string
	Entries     []types.RegistryEntry
	Diagnostics *types.DiagnosticReport
	Err         error
}

// WalkAll walks every hive concurrently, one goroutine and one Walker per
// hive, with the same options. Results are in input order. The returned
// error joins the per-hive errors; successful hives still carry entries.
func WalkAll(ctx context.Context, hives []*hive.Hive, opts Options) ([]Result, error) {
	results := make([]Result, len(hives))
	var wg sync.WaitGroup
	for i, h := range hives {
		if h == nil {
			results[i] = Result{Err: types.NewError(types.KindReadRegistry, "walk", errNilHive)}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := New(h, opts)
			entries, err := w.Run(ctx)
			results[i] = Result{
				Hive:        h.Name(),
				WalkID:      w.ID().String(),
				Entries:     entries,
				Diagnostics: w.Diagnostics(),
				Err:         err,
			}
		}()
	}
	wg.Wait()

	var errs []error
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("hive %d (%s): %w", i, r.Hive, r.Err))
		}
	}
	return results, errors.Join(errs...)
}
