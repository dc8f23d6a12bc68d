package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/stockboard/cmd/stockctl/cli"
	"github.com/odyssey-erp/stockboard/internal/app"
)

const usage = `usage: stockctl jobs <command> [flags]

commands:
  trigger <backup:sync|alerts:low_stock_scan|analytics:stats_warmup>
  stats [--json]
  scheduled [--size N]
`

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 2 || args[0] != "jobs" {
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobsCLI := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() { _ = jobsCLI.Close() }()

	cmd, rest := args[1], args[2:]
	fs := flag.NewFlagSet("stockctl jobs "+cmd, flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON")
	size := fs.Int("size", 10, "number of scheduled tasks to list")
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	opts := cli.CommandOptions{JSONOutput: *jsonOut, Size: *size}

	switch cmd {
	case "trigger":
		if fs.NArg() != 1 {
			_, _ = fmt.Fprint(os.Stderr, usage)
			return 2
		}
		return jobsCLI.TriggerCommand(ctx, fs.Arg(0), opts)
	case "stats":
		return jobsCLI.StatsCommand(ctx, opts)
	case "scheduled":
		return jobsCLI.ScheduledCommand(ctx, opts)
	default:
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}
}
