package cli

import (
	"fmt"

	"wt/internal/auth"
	"wt/internal/server"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

const serveHelp = `  serve                  Serve the tracker over HTTP
    --addr                 Listen address [default: configured address]
    --dev                  Verbose development logging`

func cmdServe(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("serve", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt serve [options]")
		o.Println("")
		o.Println("Serve the tracker over HTTP. Developer routes require HTTP basic")
		o.Println("auth with the configured credential pair; client routes are open.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	addr := flagSet.String("addr", a.cfg.ListenAddr, "Listen address")
	dev := flagSet.Bool("dev", false, "Verbose development logging")

	if hasHelpFlag(args) {
		flagSet.Usage()

		return nil
	}

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	logger, err := newLogger(*dev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	defer func() { _ = logger.Sync() }()

	creds := auth.Credentials{Username: a.cfg.DevUsername, Password: a.cfg.DevPassword}
	srv := server.New(a.engine, creds, a.attachDir, logger)

	o.Println("Listening on", *addr)

	return srv.ListenAndServe(*addr)
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
