package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			log.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:    "netana",
		Usage:   "Analytical model of traffic on a wavelength-constrained packet network",
		Suggest: true,
		Flags: []cli.Flag{
			FlagVerbose,
			FlagVeryVerbose,
			FlagLogFile,
		},
		Commands: []*cli.Command{
			solveCmd,
			checkCmd,
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// before sets up logging for every command
func before(cctx *cli.Context) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level := log.WarnLevel
	if IsVerbose {
		level = log.InfoLevel
	}
	if IsVeryVerbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if logFile := cctx.String("log-file"); logFile != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 7,
			MaxAge:     30, // days
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, fileLogger))
	}
	return nil
}
