package inject

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	appconfig "github.com/dmorgan81/barroco/internal/config"
	"github.com/dmorgan81/barroco/internal/feed"
	"github.com/dmorgan81/barroco/internal/handle"
	"github.com/dmorgan81/barroco/internal/handler"
	"github.com/dmorgan81/barroco/internal/image"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/dmorgan81/barroco/internal/page"
	"github.com/dmorgan81/barroco/internal/param"
	"github.com/dmorgan81/barroco/internal/post"
	"github.com/dmorgan81/barroco/internal/post/reddit"
	"github.com/dmorgan81/barroco/internal/prompt"
	"github.com/dmorgan81/barroco/internal/server"
	"github.com/dmorgan81/barroco/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

func Setup(ctx context.Context, cfg *appconfig.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideNamedValue[context.Context](injector, "context", ctx)
	do.ProvideValue[*slog.Logger](injector, log)

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue[*http.Client](injector, http.DefaultClient)

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.ProvideValue[prompt.Styles](injector, prompt.DefaultStyles())
	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[image.Generator](injector, lo.Ternary(cfg.Backend == appconfig.BackendImagen,
		image.NewImagenGenerator, image.NewDezgoGenerator))
	do.Provide[store.Uploader](injector, lo.Ternary(cfg.Bucket != "",
		store.NewS3Uploader, store.NewFileUploader))
	do.Provide[store.Invalidator](injector, func(i *do.Injector) (store.Invalidator, error) {
		if cfg.Distribution == "" {
			return store.NoopInvalidator{}, nil
		}
		return store.NewCloudFrontInvalidator(i)
	})
	do.ProvideNamed[*feed.Generator](injector, "feed", func(i *do.Injector) (*feed.Generator, error) {
		if cfg.Bucket == "" {
			return nil, nil
		}
		return feed.NewS3Generator(i)
	})
	do.Provide[post.Poster](injector, func(i *do.Injector) (post.Poster, error) {
		if cfg.Subreddit == "" {
			return post.NoopPoster{}, nil
		}
		return reddit.NewPoster(i)
	})
	do.Provide[*page.Templator](injector, page.NewTemplator)

	do.ProvideNamed[string](injector, "dezgo_key", func(i *do.Injector) (string, error) {
		return param.Resolve(ctx, lazyFetcher{i}, cfg.DezgoKey, cfg.DezgoKeyParam)
	})
	do.ProvideNamed[string](injector, "gemini_key", func(i *do.Injector) (string, error) {
		return param.Resolve(ctx, lazyFetcher{i}, cfg.GeminiKey, cfg.GeminiKeyParam)
	})
	do.ProvideNamed[string](injector, "reddit_client_id", func(i *do.Injector) (string, error) {
		return param.Resolve(ctx, lazyFetcher{i}, cfg.RedditClientID, cfg.RedditClientIDParam)
	})
	do.ProvideNamed[string](injector, "reddit_client_secret", func(i *do.Injector) (string, error) {
		return param.Resolve(ctx, lazyFetcher{i}, cfg.RedditClientSecret, cfg.RedditClientSecretParam)
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		if cfg.PromptsParam == "" {
			return nil, nil
		}
		return do.MustInvoke[param.Fetcher](i).FetchAll(ctx, cfg.PromptsParam)
	})
	do.ProvideNamedValue[string](injector, "imagen_model", cfg.ImagenModel)
	do.ProvideNamedValue[bool](injector, "imagen_vertex", cfg.ImagenVertex)
	do.ProvideNamedValue[string](injector, "bucket", cfg.Bucket)
	do.ProvideNamedValue[string](injector, "distribution", cfg.Distribution)
	do.ProvideNamedValue[string](injector, "output_dir", cfg.OutputDir)
	do.ProvideNamedValue[string](injector, "base_url", cfg.BaseURL)
	do.ProvideNamedValue[string](injector, "subreddit", cfg.Subreddit)
	do.ProvideNamedValue[string](injector, "reddit_username", cfg.RedditUsername)
	do.ProvideNamedValue[string](injector, "addr", cfg.Addr)
	do.ProvideNamedValue[string](injector, "gin_mode", cfg.GinMode)
	do.ProvideNamedValue[time.Duration](injector, "shutdown_timeout", cfg.ShutdownTimeout)

	do.Provide[*handler.Handler](injector, handler.NewHandler)
	do.Provide[*handle.ImageHandler](injector, handle.NewImageHandler)
	do.Provide[*handle.HtmlHandler](injector, handle.NewHtmlHandler)
	do.Provide[*handle.FeedHandler](injector, handle.NewFeedHandler)
	do.Provide[*server.Server](injector, server.NewServer)

	return injector
}

// lazyFetcher defers building the SSM client until a parameter is needed.
type lazyFetcher struct {
	i *do.Injector
}

func (f lazyFetcher) Fetch(ctx context.Context, path string) (string, error) {
	return do.MustInvoke[param.Fetcher](f.i).Fetch(ctx, path)
}

func (f lazyFetcher) FetchAll(ctx context.Context, path string) ([]string, error) {
	return do.MustInvoke[param.Fetcher](f.i).FetchAll(ctx, path)
}
