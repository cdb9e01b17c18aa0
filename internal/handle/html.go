package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmorgan81/barroco/internal/dispatch"
	"github.com/dmorgan81/barroco/internal/handler"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/dmorgan81/barroco/internal/page"
	"github.com/dmorgan81/barroco/internal/prompt"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
)

const title = "Barroco Andino"

type HtmlHandler struct {
	styles    prompt.Styles
	templator *page.Templator
	client    *http.Client
	baseURL   string
}

func NewHtmlHandler(i *do.Injector) (*HtmlHandler, error) {
	return &HtmlHandler{
		styles:    do.MustInvoke[*handler.Handler](i).Styles(),
		templator: do.MustInvoke[*page.Templator](i),
		client:    do.MustInvoke[*http.Client](i),
		baseURL:   do.MustInvokeNamed[string](i, "base_url"),
	}, nil
}

func (h *HtmlHandler) Handle(c *gin.Context) {
	h.render(c, http.StatusOK, page.Params{})
}

// Submit serves the index form when scripts are disabled. The request is
// dispatched to the generation endpoint and the result region is rendered
// into the page.
func (h *HtmlHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	log := log.FromContextOrDiscard(ctx).WithGroup("HtmlHandler")

	params := page.Params{Prompt: c.PostForm("prompt"), Style: c.PostForm("style")}
	d, err := dispatch.New(h.client, h.baseURL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
		return
	}

	result := &dispatch.HTMLRegion{}
	status := http.StatusOK
	err = d.Dispatch(ctx, dispatch.Page{
		Prompt:  dispatch.StaticField(params.Prompt),
		Style:   dispatch.StaticField(params.Style),
		Loading: &dispatch.TextIndicator{W: io.Discard},
		Result:  result,
	})
	var reqErr *dispatch.RequestError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.Status
	case err != nil:
		log.Error("dispatching form", "error", err)
		status = http.StatusBadGateway
		result.SetError("Error: " + http.StatusText(status))
	}

	if params.Result, err = result.HTML(); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
		return
	}
	h.render(c, status, params)
}

func (h *HtmlHandler) render(c *gin.Context, status int, params page.Params) {
	params.Title = title
	params.Styles = h.styles.Names()
	html, err := h.templator.Template(c.Request.Context(), params)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", html)
}
