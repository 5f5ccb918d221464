package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/storage"
)

// UploadRefs is the typed result of the upload fan-out.
type UploadRefs struct {
	OriginalRef  string
	ConvertedRef string
}

// UploadStage persists the original document and the converted image
// concurrently and joins on both. If either store fails the whole call
// fails, even when the other succeeded; the succeeded object is not rolled
// back (accepted limitation). No ordering between the two puts is
// guaranteed.
type UploadStage struct {
	Store  storage.ObjectStore
	Retry  RetryPolicy
	Logger *slog.Logger
}

func NewUploadStage(store storage.ObjectStore, retry RetryPolicy, logger *slog.Logger) *UploadStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadStage{Store: store, Retry: retry, Logger: logger}
}

// Run uploads both payloads. A failure in one branch cancels the group
// context so the sibling is not waited on past its own cancellation point.
func (u *UploadStage) Run(ctx context.Context, original []byte, originalMime string, converted []byte) (UploadRefs, error) {
	g, gctx := errgroup.WithContext(ctx)

	var refs UploadRefs
	g.Go(func() error {
		err := u.Retry.Do(gctx, u.Logger, "upload.original", func(ctx context.Context) error {
			ref, err := u.Store.Put(ctx, original, originalMime, "resumes")
			if err != nil {
				return err
			}
			refs.OriginalRef = ref
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: original: %v", ErrUploadFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		err := u.Retry.Do(gctx, u.Logger, "upload.converted", func(ctx context.Context) error {
			ref, err := u.Store.Put(ctx, converted, "image/png", "images")
			if err != nil {
				return err
			}
			refs.ConvertedRef = ref
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: converted image: %v", ErrUploadFailed, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return UploadRefs{}, err
	}

	u.Logger.Info("pipeline.upload.ok",
		"original_ref", refs.OriginalRef,
		"converted_ref", refs.ConvertedRef,
	)
	return refs, nil
}
