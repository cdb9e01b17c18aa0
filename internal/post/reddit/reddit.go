package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"

	"github.com/dmorgan81/barroco/internal/log"
	"github.com/dmorgan81/barroco/internal/post"
	"github.com/samber/do"
	"github.com/samber/lo"
)

const (
	tokenURL  = "https://www.reddit.com/api/v1/access_token"
	submitURL = "https://oauth.reddit.com/api/submit"
)

type creds struct {
	id, secret string
}

type Poster struct {
	client    *http.Client
	creds     creds
	userAgent string
	subreddit string
	baseURL   string

	tokenURL  string
	submitURL string
}

func NewPoster(i *do.Injector) (post.Poster, error) {
	id := do.MustInvokeNamed[string](i, "reddit_client_id")
	secret := do.MustInvokeNamed[string](i, "reddit_client_secret")
	subreddit := do.MustInvokeNamed[string](i, "subreddit")
	username := do.MustInvokeNamed[string](i, "reddit_username")
	client := do.MustInvoke[*http.Client](i)

	info, _ := debug.ReadBuildInfo()
	settings := lo.Ternary(info != nil, lo.FromPtr(info).Settings, nil)
	setting := lo.FindOrElse(settings, debug.BuildSetting{Value: "unknown"}, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	})
	userAgent := fmt.Sprintf("web:barroco:%s (by /u/%s)", setting.Value, username)

	return &Poster{
		client:    client,
		creds:     creds{id, secret},
		userAgent: userAgent,
		subreddit: subreddit,
		baseURL:   do.MustInvokeNamed[string](i, "base_url"),
		tokenURL:  tokenURL,
		submitURL: submitURL,
	}, nil
}

func (p *Poster) Post(ctx context.Context, params post.Params) error {
	logger := log.FromContextOrDiscard(ctx)
	logger.Info("posting to reddit", "subreddit", p.subreddit)

	token, err := p.getAccessToken(ctx)
	if err != nil {
		return err
	}
	logger.Debug("fetched access token")

	return p.submit(ctx, params, token)
}

func (p *Poster) getAccessToken(ctx context.Context) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL,
		bytes.NewBufferString(data.Encode()))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.userAgent)
	req.SetBasicAuth(p.creds.id, p.creds.secret)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("reddit returned no access token")
	}
	return body.AccessToken, nil
}

func (p *Poster) submit(ctx context.Context, params post.Params, token string) error {
	data := url.Values{}
	data.Set("api_type", "json") // https://www.reddit.com/dev/api/oauth#POST_api_submit
	data.Set("kind", "link")
	data.Set("sr", p.subreddit)
	data.Set("title", fmt.Sprintf("%s:%s:%s", params.Prompt, params.Style, params.Seed))
	data.Set("url", fmt.Sprintf("%s/%s", strings.TrimSuffix(p.baseURL, "/"), params.Name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.submitURL,
		bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Authorization", fmt.Sprintf("bearer %s", token))

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("reddit returned status %d: %s", resp.StatusCode, body)
}
