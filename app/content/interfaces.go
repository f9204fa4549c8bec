package content

import (
	"context"
)

// DescriptionFileName is the record an asset fetcher writes into the target
// directory once an asset is materialized. Its presence is what qualifies a
// reference for the index.
const DescriptionFileName = "tweet_api.json"

// AssetFetcher materializes the asset behind a reference under the target
// directory. Implementations are best-effort: they create the directory,
// contain and log their own errors, and never propagate them to the caller.
type AssetFetcher interface {
	Fetch(ctx context.Context, reference string, targetDir string)
}
