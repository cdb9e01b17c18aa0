package handler

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/barroco/internal/image"
	"github.com/dmorgan81/barroco/internal/post"
	"github.com/dmorgan81/barroco/internal/store"
)

type mockGenerator struct {
	params image.Params
	data   []byte
	seed   string
	err    error
}

func (m *mockGenerator) Generate(_ context.Context, params image.Params) ([]byte, string, error) {
	m.params = params
	return m.data, m.seed, m.err
}

type mockUploader struct {
	mu      sync.Mutex
	uploads []store.UploadParams
	err     error
}

func (m *mockUploader) Upload(_ context.Context, params store.UploadParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.uploads = append(m.uploads, params)
	return nil
}

type mockInvalidator struct {
	paths []string
}

func (m *mockInvalidator) Invalidate(_ context.Context, paths []string) error {
	m.paths = append(m.paths, paths...)
	return nil
}

// mockBucket serves the feed generator from the uploads it has seen.
type mockBucket struct {
	uploader *mockUploader
}

func (m *mockBucket) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.uploader.mu.Lock()
	defer m.uploader.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for _, u := range m.uploader.uploads {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(u.Name)})
	}
	return out, nil
}

func (m *mockBucket) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.uploader.mu.Lock()
	defer m.uploader.mu.Unlock()
	for _, u := range m.uploader.uploads {
		if u.Name == aws.ToString(in.Key) {
			return &s3.HeadObjectOutput{Metadata: u.Metadata}, nil
		}
	}
	return &s3.HeadObjectOutput{}, nil
}

type mockPoster struct {
	posts []post.Params
	err   error
}

func (m *mockPoster) Post(_ context.Context, params post.Params) error {
	m.posts = append(m.posts, params)
	return m.err
}
