package image

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/samber/do"
)

const dezgoURL = "https://api.dezgo.com/text2image"

type DezgoGenerator struct {
	Client *http.Client
	Key    string
	URL    string
}

func NewDezgoGenerator(i *do.Injector) (Generator, error) {
	return &DezgoGenerator{
		Client: do.MustInvoke[*http.Client](i),
		Key:    do.MustInvokeNamed[string](i, "dezgo_key"),
		URL:    dezgoURL,
	}, nil
}

func (g *DezgoGenerator) Generate(ctx context.Context, params Params) ([]byte, string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("params", params)
	log.Info("generating image via api.dezgo.com")

	body, err := json.Marshal(params.WithDefaults())
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("X-Dezgo-Key", g.Key)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &StatusError{Backend: "dezgo", Status: resp.StatusCode, Body: string(data)}
	}

	seed := resp.Header.Get("x-input-seed")
	log.Info("received image via api.dezgo.com", "seed", seed)

	return data, seed, nil
}
