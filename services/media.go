package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"eventhub/logger"
)

// uploadAll stores files in order and returns their URLs. On failure the
// files already stored are removed again.
func uploadAll(ctx context.Context, host ImageHost, log *slog.Logger, folder string, files []Upload) ([]string, error) {
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			u, err := host.Upload(gctx, folder, f.Filename, f.Body)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Filename, err)
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var done []string
		for _, u := range urls {
			if u != "" {
				done = append(done, u)
			}
		}
		removeAll(context.WithoutCancel(ctx), host, log, done)
		return nil, err
	}
	return urls, nil
}

// removeAll deletes hosted files best effort.
func removeAll(ctx context.Context, host ImageHost, log *slog.Logger, urls []string) {
	for _, u := range urls {
		if err := host.Delete(ctx, u); err != nil {
			log.Warn("could not remove hosted file", slog.String("url", u), logger.Err(err))
		}
	}
}
