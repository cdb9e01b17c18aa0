package handle

import (
	"context"
	"net/http"

	"github.com/dmorgan81/barroco/internal/feed"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
)

type feedGenerator interface {
	Generate(context.Context) ([]byte, error)
}

type FeedHandler struct {
	feed feedGenerator
}

func NewFeedHandler(i *do.Injector) (*FeedHandler, error) {
	h := &FeedHandler{}
	// A nil *feed.Generator must not end up inside the interface.
	if g := do.MustInvokeNamed[*feed.Generator](i, "feed"); g != nil {
		h.feed = g
	}
	return h, nil
}

func (h *FeedHandler) Handle(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}

	rss, err := h.feed.Generate(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
		return
	}
	c.Data(http.StatusOK, "application/rss+xml", rss)
}
