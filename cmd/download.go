package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/pxv/aapi"
	"github.com/xeptore/pxv/config"
	"github.com/xeptore/pxv/ctxutil"
	"github.com/xeptore/pxv/jsonutil"
	"github.com/xeptore/pxv/log"
	"github.com/xeptore/pxv/pixiv"
	"github.com/xeptore/pxv/ratelimit"
)

type imageJob struct {
	illustID pixiv.ID
	page     int
	url      string
}

func download(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cliCtx.NArg() < 1 {
		return errors.New("at least one illustration ID is required")
	}
	ids, err := parseIllustIDs(cliCtx.Args().Slice())
	if nil != err {
		return err
	}

	e, err := newEnv(cliCtx)
	if nil != err {
		return err
	}
	c, err := e.authenticatedClient(ctx)
	if nil != err {
		return err
	}

	dir := lo.CoalesceOrEmpty(cliCtx.String(flagOutputDir), e.cfg.DownloadDir)
	if err := os.MkdirAll(dir, 0o0755); nil != err {
		return fmt.Errorf("failed to create download directory: %v", err)
	}

	var jobs []imageJob
	for _, id := range ids {
		var illustJobs []imageJob
		err := retry(ctx, e.cfg.DownloadRetries, e.logger, func() error {
			callCtx, cancel := e.apiContext(ctx)
			defer cancel()

			var err error
			illustJobs, err = illustImages(callCtx, c, id)
			return err
		})
		if nil != err {
			return err
		}
		e.logger.Debug().Stringer("illust_id", id).Int("pages", len(illustJobs)).Msg("Illustration details fetched")
		jobs = append(jobs, illustJobs...)
	}

	// In-flight downloads get a grace period after an interrupt; no new ones
	// start.
	dlCtx, dlCancel := ctxutil.WithDelayedCancel(ctx, config.ShutdownGracePeriod)
	defer dlCancel()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []imageJob
	)
	g.SetLimit(e.cfg.DownloadConcurrency)
	for _, job := range jobs {
		if nil != ctx.Err() {
			break
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); nil != r {
					e.logger.Error().Func(log.Panic(r)).Str("url", job.url).Msg("Download worker panicked")
				}
			}()

			logger := e.logger.With().Stringer("illust_id", job.illustID).Int("page", job.page).Logger()
			if err := downloadImage(dlCtx, c, logger, e.cfg.DownloadRetries, dir, job); nil != err {
				logger.Error().Func(log.Flaw(err)).Msg("Download failed")
				mu.Lock()
				failures = append(failures, job)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if nil != ctx.Err() {
		return ctx.Err()
	}
	if len(failures) > 0 {
		failedURLs := lo.Map(failures, func(j imageJob, _ int) string { return j.url })
		e.logger.Error().Strs("urls", failedURLs).Msg("Some downloads failed")
		return fmt.Errorf("%d of %d downloads failed", len(failures), len(jobs))
	}
	e.logger.Info().Int("images", len(jobs)).Str("dir", dir).Msg("All downloads completed")
	return nil
}

func parseIllustIDs(args []string) ([]pixiv.ID, error) {
	ids := make([]pixiv.ID, 0, len(args))
	for _, arg := range lo.Uniq(args) {
		id, err := strconv.ParseUint(arg, 10, 64)
		if nil != err {
			return nil, fmt.Errorf("invalid illustration ID %q", arg)
		}
		ids = append(ids, pixiv.ID(id))
	}
	return ids, nil
}

// illustImages lists the original image URLs of an illustration, one per
// page.
func illustImages(ctx context.Context, c *aapi.Client, id pixiv.ID) ([]imageJob, error) {
	v, err := c.JSON(ctx, http.MethodGet, "/v1/illust/detail", url.Values{"illust_id": {id.String()}})
	if nil != err {
		return nil, err
	}
	return imageJobs(id, v.Get("illust")), nil
}

func imageJobs(id pixiv.ID, illust gjson.Result) []imageJob {
	if u := jsonutil.String(illust, "meta_single_page.original_image_url"); u != "" {
		return []imageJob{{illustID: id, page: 0, url: u}}
	}
	urls := lo.Compact(lo.Map(illust.Get("meta_pages").Array(), func(p gjson.Result, _ int) string {
		return jsonutil.String(p, "image_urls.original")
	}))
	return lo.Map(urls, func(u string, i int) imageJob {
		return imageJob{illustID: id, page: i, url: u}
	})
}

func downloadImage(ctx context.Context, c *aapi.Client, logger zerolog.Logger, retries uint64, dir string, job imageJob) error {
	u, err := url.Parse(job.url)
	if nil != err {
		return fmt.Errorf("invalid image URL %q: %v", job.url, err)
	}
	dst := filepath.Join(dir, path.Base(u.Path))
	if _, err := os.Stat(dst); nil == err {
		logger.Info().Str("path", dst).Msg("File already exists. Skipping")
		return nil
	}

	return retry(ctx, retries, logger, func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ratelimit.DownloadJitter()):
		}

		n, err := downloadToFile(ctx, c, job.url, dst)
		if nil != err {
			return err
		}
		logger.Info().Str("path", dst).Int64("bytes", n).Msg("Image downloaded")
		return nil
	})
}

// downloadToFile writes into a temporary file next to dst and renames it into
// place only after the whole body has been written.
func downloadToFile(ctx context.Context, c *aapi.Client, rawURL, dst string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if nil != err {
		return 0, fmt.Errorf("failed to create temporary file: %v", err)
	}
	tmpPath := tmp.Name()

	n, err := c.Download(ctx, rawURL, tmp)
	if closeErr := tmp.Close(); nil == err && nil != closeErr {
		err = fmt.Errorf("failed to close temporary file: %v", closeErr)
	}
	if nil != err {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, dst); nil != err {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move downloaded file into place: %v", err)
	}
	return n, nil
}

// retry runs op until it succeeds, retrying failures retryable accepts with
// exponential backoff. Every other failure is final.
func retry(ctx context.Context, retries uint64, logger zerolog.Logger, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = config.DownloadRetryMaxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)

	return backoff.RetryNotify(
		func() error {
			err := op()
			if nil == err || retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		},
		policy,
		func(err error, wait time.Duration) {
			logger.Warn().Func(log.Flaw(err)).Dur("wait", wait).Msg("Request failed. Retrying")
		},
	)
}

// retryable reports whether err is a transport failure worth another
// attempt. A per-call deadline counts as one; retry stops on its own once the
// parent context is done.
func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var transportErr *pixiv.TransportError
	if !errors.As(err, &transportErr) {
		return false
	}
	code := transportErr.StatusCode
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
