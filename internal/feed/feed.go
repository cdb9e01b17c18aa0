package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/gorilla/feeds"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const Name = "feed.xml"

type Client interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
}

type Generator struct {
	client  Client
	bucket  string
	baseURL string
}

func NewS3Generator(i *do.Injector) (*Generator, error) {
	client := do.MustInvoke[*s3.Client](i)
	bucket := do.MustInvokeNamed[string](i, "bucket")
	baseURL := do.MustInvokeNamed[string](i, "base_url")
	return &Generator{client, bucket, baseURL}, nil
}

func New(client Client, bucket, baseURL string) *Generator {
	return &Generator{client, bucket, baseURL}
}

func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed")
	log.Info("generating rss feed", "bucket", g.bucket)

	feed := feeds.Feed{
		Title:       "Barroco",
		Description: "AI generated images in the style of the Andean baroque",
		Link:        &feeds.Link{Href: g.baseURL},
		Updated:     time.Now(),
	}

	pager := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
	})

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		objs := lo.Filter(page.Contents, func(o s3types.Object, _ int) bool {
			return strings.HasSuffix(aws.ToString(o.Key), ".png")
		})

		for _, obj := range objs {
			key := aws.ToString(obj.Key)
			group.Go(func() error {
				out, err := g.client.HeadObject(gctx, &s3.HeadObjectInput{
					Bucket: aws.String(g.bucket),
					Key:    aws.String(key),
				})
				if err != nil {
					return fmt.Errorf("head %s: %w", key, err)
				}

				meta := out.Metadata
				item := &feeds.Item{
					Id:      key,
					Title:   fmt.Sprintf("%s:%s:%s", meta["prompt"], meta["style"], meta["seed"]),
					Link:    &feeds.Link{Href: fmt.Sprintf("%s/%s", strings.TrimSuffix(g.baseURL, "/"), key)},
					Updated: aws.ToTime(out.LastModified),
				}

				mu.Lock()
				defer mu.Unlock()
				feed.Add(item)
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Updated.Before(b.Updated)
	})
	rss, err := feed.ToRss()
	return []byte(rss), err
}
