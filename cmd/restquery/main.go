// Command restquery parses REST query strings into query descriptors and can
// run them against a MongoDB collection or a JSON lines file.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

func main() {
	var cfg configuration
	if err := envconfig.Process("restquery", &cfg); err != nil {
		log.WithField("err", err).Fatal("could not read configuration from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand(&cfg).ExecuteContext(ctx); err != nil {
		log.WithField("err", err).Error("restquery failed")
		stop()
		os.Exit(1)
	}
}
