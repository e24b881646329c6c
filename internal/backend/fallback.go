package backend

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
)

// FetchWithFallback is the read path. It asks the active adapter for the
// kind's records, replaces the cached snapshot on success and returns the
// fresh data. Any remote failure (offline, unconfigured, backend error)
// degrades silently to the last cached snapshot; only local-storage failures
// surface as errors. A cold cache yields an empty slice.
func FetchWithFallback[T any](ctx context.Context, sel *Selector, st *store.Store, kind entity.Kind) ([]T, error) {
	if adapter, err := sel.Active(); err == nil {
		recs, fetchErr := adapter.FetchAll(ctx, kind)
		if fetchErr == nil {
			if err := st.Cache(ctx, kind, recs); err != nil {
				return nil, err
			}

			raws := make([]json.RawMessage, len(recs))
			for i, rec := range recs {
				raws[i] = rec.Data
			}

			return entity.DecodeAll[T](raws)
		}

		slog.Warn("remote fetch failed, serving cached snapshot", "kind", kind, "error", fetchErr)
	}

	raws, err := st.GetCached(ctx, kind)
	if err != nil {
		return nil, err
	}

	return entity.DecodeAll[T](raws)
}
