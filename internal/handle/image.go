package handle

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmorgan81/barroco/internal/handler"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/dmorgan81/barroco/internal/prompt"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
)

type generator interface {
	Generate(context.Context, handler.Input) (handler.Output, []byte, error)
}

type ImageRequest struct {
	Style  string `json:"style"`
	Prompt string `json:"prompt"`
}

type ImageHandler struct {
	generator generator
}

func NewImageHandler(i *do.Injector) (*ImageHandler, error) {
	return &ImageHandler{generator: do.MustInvoke[*handler.Handler](i)}, nil
}

func (h *ImageHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	log := log.FromContextOrDiscard(ctx).WithGroup("ImageHandler")

	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	log.Info("received request", "style", req.Style, "prompt", req.Prompt)

	out, img, err := h.generator.Generate(ctx, handler.Input{Prompt: req.Prompt, Style: req.Style})
	switch {
	case errors.Is(err, prompt.ErrUnknownStyle):
		log.Warn("rejected request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	case err != nil:
		log.Error("generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
		return
	}

	c.Header("X-Image-Name", out.Name)
	if out.Seed != "" {
		c.Header("X-Image-Seed", out.Seed)
	}
	c.Data(http.StatusOK, "image/png", img)
}
