// Command admin は運用向けの管理コマンド（マイグレーション・クォート更新・スナップショット確認）です。
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// commands はadminに登録するサブコマンドの一覧です。
var commands = []subcommands.Command{
	&migrateCmd{},
	&refreshQuotesCmd{},
	&snapshotCmd{},
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env not loaded, using process environment", "error", err)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
