package cocktaildb

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/homebardev/homebar/internal/drinks"
)

type SyncResult struct {
	Fetched int
	Added   int
	Total   int
	Path    string
}

// Sync fetches the whole catalogue and merges it into the cache at path.
// Existing records keep their position and any explicit strength tag; new
// ones are appended. A missing cache starts empty, an unreadable one aborts
// so it is not overwritten.
func (c *Client) Sync(ctx context.Context, path string) (SyncResult, error) {
	existing, err := readExisting(path)
	if err != nil {
		return SyncResult{}, err
	}

	fetched, err := c.FetchAll(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch catalogue: %w", err)
	}

	merged := drinks.MergeEntries(existing, fetched)
	if err := drinks.WriteCache(path, merged); err != nil {
		return SyncResult{}, err
	}

	res := SyncResult{
		Fetched: len(fetched),
		Added:   len(merged) - len(existing),
		Total:   len(merged),
		Path:    path,
	}
	c.logger.Info("drink cache synced",
		zap.String("path", path),
		zap.Int("fetched", res.Fetched),
		zap.Int("added", res.Added),
		zap.Int("total", res.Total))
	return res, nil
}

func readExisting(path string) ([]drinks.Entry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	entries, err := drinks.ReadEntries(path)
	if err != nil {
		return nil, fmt.Errorf("existing cache is unreadable, refusing to overwrite: %w", err)
	}
	return entries, nil
}
