// Package commands implements the snackpdf command line actions.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/snackpdf/converter/internal/client"
	"github.com/snackpdf/converter/internal/config"
	"github.com/snackpdf/converter/internal/console"
	"github.com/snackpdf/converter/internal/resolver"
	"github.com/snackpdf/converter/internal/server"
	"github.com/snackpdf/converter/internal/widget"
	"github.com/urfave/cli/v2"
)

// NewApp builds the snackpdf command line application.
func NewApp(version string) *cli.App {
	quiet := &cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"}

	return &cli.App{
		Name:    "snackpdf",
		Usage:   "convert documents to PDF",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "convert FILE through the endpoint of a conversion page",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Usage: "conversion page path, e.g. /tools/word_to_pdf", Required: true},
					&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Value: "http://localhost:8090", Usage: "conversion server base URL", EnvVars: []string{"SNACKPDF_SERVER"}},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "directory for the converted PDF"},
					quiet,
				},
				Action: ConvertAction,
			},
			{
				Name:      "resolve",
				Usage:     "print the accept filter and endpoint of a page",
				ArgsUsage: "PAGE",
				Action:    ResolveAction,
			},
			{
				Name:  "serve",
				Usage: "start the conversion server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "snackpdf.yaml", Usage: "path to the YAML configuration file", EnvVars: []string{"SNACKPDF_CONFIG"}},
					quiet,
				},
				Action: ServeAction,
			},
		},
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("quiet") {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

// ConvertAction runs one conversion through the widget hosted on the console.
func ConvertAction(c *cli.Context) error {
	logger := newLogger(c)

	if c.NArg() != 1 {
		return cli.Exit("convert takes exactly one FILE argument", 2)
	}

	page := c.String("page")
	route := resolver.Resolve(page)
	if !route.Supported() {
		return cli.Exit(fmt.Sprintf("no conversion endpoint for page %q", page), 2)
	}

	file, err := console.FileFromPath(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if !route.Allows(file.Name) {
		return cli.Exit(fmt.Sprintf("%s is not accepted here (accepts %s)", file.Name, route.Accept()), 2)
	}

	downloader, err := console.NewDirDownloader(c.String("out"), logger)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	w, err := widget.New(widget.Options{
		Location:   func() string { return page },
		View:       console.NewView(c.App.Writer),
		Uploader:   client.New(c.String("server"), nil),
		Downloader: downloader,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	w.Select(file)
	if w.Submit(c.Context) != widget.OutcomeSucceeded {
		return cli.Exit("conversion failed", 1)
	}

	fmt.Fprintln(c.App.Writer, downloader.Last)
	return nil
}

// ResolveAction prints how a page path resolves.
func ResolveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("resolve takes exactly one PAGE argument", 2)
	}

	route := resolver.Resolve(c.Args().First())
	endpoint := route.Endpoint
	if endpoint == "" {
		endpoint = "(none)"
	}
	fmt.Fprintf(c.App.Writer, "accept:   %s\nendpoint: %s\n", route.Accept(), endpoint)
	return nil
}

// ServeAction runs the conversion server until interrupted.
func ServeAction(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load configuration: %v", err), 2)
	}

	level := cfg.LogLevel()
	if c.Bool("quiet") {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))

	srv, err := server.New(cfg, c.App.Version, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize server: %v", err), 1)
	}
	defer srv.Close()

	srv.PrintBanner(c.App.Writer, c.App.Version, "unknown", c.String("config"))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
