// This program performs administrative tasks for the notary ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/notary/app/tooling/admin/commands"
	"github.com/ardanlabs/notary/foundation/logger"
	"go.uber.org/zap"
)

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// A long proof of work search can be interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return commands.NewRootCmd(log).ExecuteContext(ctx)
}
