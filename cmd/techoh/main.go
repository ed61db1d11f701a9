package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/d60-Lab/techoh/config"
	"github.com/d60-Lab/techoh/internal/api"
	"github.com/d60-Lab/techoh/pkg/logger"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	h, cleanup, err := initApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage unavailable: %v\n", err)
		return 3
	}
	defer cleanup()

	app := &cli.App{
		Name:     "techoh",
		Usage:    "tech blog on a local document store",
		Commands: api.Commands(h),
		// 由 run 统一输出并返回退出码，保证 cleanup 执行
		ExitErrHandler: func(*cli.Context, error) {},
	}
	if err := app.Run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var coder cli.ExitCoder
		if errors.As(err, &coder) {
			return coder.ExitCode()
		}
		return 1
	}
	return 0
}
