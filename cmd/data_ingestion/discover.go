package main

import (
	"context"
	"log/slog"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/discovery"
)

type pageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// discoverLinks fetches a listing page and returns its matching links as absolute URLs.
func discoverLinks(ctx context.Context, fetcher pageFetcher, logger *slog.Logger, pageURL string, filter discovery.Filter) ([]string, error) {
	page, err := fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	hrefs, err := discovery.FindLinks(logger, page, filter)
	if err != nil {
		return nil, err
	}
	return discovery.Resolve(pageURL, hrefs), nil
}
