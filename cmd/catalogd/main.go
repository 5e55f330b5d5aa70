package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talkincode/catalogd/config"
	"github.com/talkincode/catalogd/internal/app"
	"github.com/talkincode/catalogd/internal/catalogapi"
	"github.com/talkincode/catalogd/internal/webserver"
)

var (
	cfile     = flag.String("c", "catalogd.yml", "config file")
	initdb    = flag.Bool("initdb", false, "drop and recreate the database schema, then exit")
	printConf = flag.Bool("printcfg", false, "print the effective configuration and exit")
)

func main() {
	flag.Parse()

	cfg := config.LoadConfig(*cfile)
	if *printConf {
		fmt.Printf("%+v\n", *cfg)
		return
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	webserver.Init(application)
	catalogapi.InitRouter()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webserver.Listen()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return webserver.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("catalogd stopped: %v", err)
	}
}
