package controller

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nestegg-app/nestegg/internal/api"
)

const accountFetchParallelism = 4

// LoadLinkedAccounts flattens every linked item's accounts into one slice,
// ordered by item then by account as the service reports them. Per-item
// fetches run concurrently but the output order never depends on timing.
// Any failed fetch fails the whole load.
func LoadLinkedAccounts(ctx context.Context, src AccountSource) ([]api.Account, error) {
	items, err := src.ListLinkedItems(ctx)
	if err != nil {
		return nil, err
	}

	perItem := make([][]api.Account, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(accountFetchParallelism)
	for i, item := range items {
		g.Go(func() error {
			accounts, err := src.ListItemAccounts(ctx, item.ID)
			if err != nil {
				return err
			}
			perItem[i] = accounts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]api.Account, 0)
	for _, accounts := range perItem {
		all = append(all, accounts...)
	}
	return all, nil
}
