package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dmorgan81/barroco/internal/dispatch"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/dmorgan81/barroco/internal/prompt"
	"github.com/samber/lo"
)

type (
	cmd struct {
		Verbose  bool        `help:"Log requests to stderr."`
		Version  struct{}    `cmd:"" help:"Show version."`
		Styles   struct{}    `cmd:"" help:"List the available styles."`
		Generate cmdGenerate `cmd:"" help:"Generate an image and save it to a file."`
	}
	cmdGenerate struct {
		Server string        `help:"Base URL of the generation server." default:"http://localhost:8000" env:"BARROCO_SERVER"`
		Prompt string        `help:"What to draw." short:"p"`
		Style  string        `help:"Style to draw it in." short:"s"`
		Out    string        `help:"File to write the image to." short:"o" default:"image.png" type:"path"`
		Wait   time.Duration `help:"Give up after this long. Zero waits forever." default:"0s"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(doMain(ctx, os.Stdout, os.Stderr, os.Args[1:]))
}

func doMain(ctx context.Context, stdout, stderr io.Writer, args []string) int {
	var c cmd
	exit := -1
	parser, err := kong.New(&c,
		kong.Name("barroco"),
		kong.Description("Generate images in the style of the Andean baroque"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exit = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "creating parser: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	// Help printed and asked to exit; parsing carried on regardless.
	if exit >= 0 {
		return exit
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if c.Verbose {
		ctx = log.NewContext(ctx, log.New(stderr))
	}

	switch kctx.Command() {
	case "version":
		fmt.Fprintf(stdout, "barroco %s\n", revision())
	case "styles":
		for _, name := range prompt.DefaultStyles().Names() {
			fmt.Fprintln(stdout, name)
		}
	case "generate":
		return generate(ctx, c.Generate, stdout, stderr)
	default:
		panic("unreachable")
	}
	return 0
}

func generate(ctx context.Context, c cmdGenerate, stdout, stderr io.Writer) int {
	d, err := dispatch.New(&http.Client{Timeout: c.Wait}, c.Server)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	result := &dispatch.FileRegion{Path: c.Out, Errors: stderr}
	err = d.Dispatch(ctx, dispatch.Page{
		Prompt:  dispatch.StaticField(c.Prompt),
		Style:   dispatch.StaticField(c.Style),
		Loading: &dispatch.TextIndicator{W: stderr},
		Result:  result,
	})

	var reqErr *dispatch.RequestError
	switch {
	case errors.As(err, &reqErr):
		return 1
	case err != nil:
		fmt.Fprintln(stderr, err)
		return 1
	}

	if written, err := result.Written(); err != nil || !written {
		fmt.Fprintf(stderr, "saving image: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, c.Out)
	return 0
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	setting := lo.FindOrElse(info.Settings, debug.BuildSetting{Value: "unknown"}, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	})
	return setting.Value
}
