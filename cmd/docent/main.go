package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v2"

	"github.com/eringen/docent"
	"github.com/eringen/docent/markdown"
	"github.com/eringen/docent/publish"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	newApp().RunAndExitOnError()
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "docent"
	app.Usage = "describe images with a hosted vision model"
	app.Version = version

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "env",
			Value:   ".env",
			Usage:   "dotenv file to load before reading the environment",
			EnvVars: []string{"DOCENT_ENV_FILE"},
		},
	}
	app.Commands = []*cli.Command{
		serveCmd,
		describeCmd,
		publishCmd,
		versionCmd,
	}
	return app
}

func loadConfig(cctx *cli.Context) (docent.Config, error) {
	return docent.LoadConfig(cctx.String("env"))
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the web server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "listen address (overrides ADDR)",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		if addr := cctx.String("addr"); addr != "" {
			cfg.Addr = addr
		}

		app := docent.New(cfg)

		ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			errc <- app.Start()
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errc
	},
}

var describeCmd = &cli.Command{
	Name:      "describe",
	Usage:     "describe the image at a URL",
	ArgsUsage: "<image-url>",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 1 {
			return cli.Exit("usage: docent describe <image-url>", 2)
		}
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		if err := cfg.Validate(true); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cctx.Context, cfg.RequestTimeout)
		defer cancel()

		desc, err := cfg.NewDescriber().Describe(ctx, cctx.Args().First())
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, desc)
		return nil
	},
}

var publishCmd = &cli.Command{
	Name:      "publish",
	Usage:     "publish a local image to the configured repository",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "describe",
			Usage: "describe the published image",
		},
		&cli.BoolFlag{
			Name:  "html",
			Usage: "print the description as HTML",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 1 {
			return cli.Exit("usage: docent publish [--describe] <file>", 2)
		}
		file := cctx.Args().First()

		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		if !cfg.PublishEnabled() {
			return errors.New("GITHUB_REPO is not set")
		}
		if err := cfg.Validate(cctx.Bool("describe")); err != nil {
			return err
		}
		if err := docent.CheckImageFile(file); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		p, err := publish.NewWithToken(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubAPIURL,
			publish.WithBranch(cfg.Branch),
			publish.WithCommitMessage(cfg.CommitMessage),
		)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cctx.Context, cfg.RequestTimeout)
		defer cancel()

		res, err := p.Publish(ctx, file, cfg.RepoPath(filepath.Base(file)))
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, res.URL)

		if !cctx.Bool("describe") {
			return nil
		}
		desc, err := cfg.NewDescriber().Describe(ctx, res.URL)
		if err != nil {
			return err
		}
		if cctx.Bool("html") {
			fmt.Fprintln(cctx.App.Writer, markdown.HTML(desc))
			return nil
		}
		fmt.Fprintln(cctx.App.Writer, desc)
		return nil
	},
}

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "print the docent version",
	Action: func(cctx *cli.Context) error {
		fmt.Fprintf(cctx.App.Writer, "docent %s\n", version)
		return nil
	},
}
