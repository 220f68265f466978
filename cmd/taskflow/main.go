// taskflow is the terminal front-end for the taskflow backend. Every
// subcommand is dispatched through the client-side router, so session
// and role checks run before any command body.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/taskflow/client-core-go/internal/app"
	"github.com/taskflow/client-core-go/internal/config"
	"github.com/taskflow/client-core-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg := config.ConfigFromEnv()
	client, err := app.New(cfg, sugar)
	if err != nil {
		sugar.Errorw("client init failed", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer client.Shutdown()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, client, os.Args[1], os.Args[2:]); err != nil {
		sugar.Debugw("command failed", "command", os.Args[1], "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `taskflow - task management client

USAGE
    taskflow <command> [flags]

SESSION
    login              --email --password
    register           --name --email --password [--role]
    logout
    whoami
    profile-update     [--name] [--email]
    change-password    --current --new

TASKS
    tasks              [--status] [--assignee] [--created-by] [--priority]
    task-create        --title [--description] [--priority] [--assignee] [--due]
    task-update        --id [--title] [--description] [--status] [--priority] [--assignee] [--due]
    task-assign        --id --user
    task-comment       --id --text
    task-delete        --id

NOTIFICATIONS
    notifications      [--unread]
    notify-read        --id
    notify-read-all
    notify-delete      --id

MANAGER
    users
    analytics          [--period] [--user]

OTHER
    dashboard
`)
}
