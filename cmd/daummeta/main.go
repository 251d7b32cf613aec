package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/John-Robertt/daummeta/internal/app/resolve"
	"github.com/John-Robertt/daummeta/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], newApp(os.Stdout, os.Stderr))
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// run 执行一次命令并返回退出码：0 成功，1 运行失败，2 参数错误。
func run(ctx context.Context, args []string, a *app) int {
	root := newRootCommand(a)
	root.SetArgs(args)
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	var ue usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(a.stderr, "参数错误：%v\n\n", ue.error)
		_ = cmd.Usage()
		return 2
	case strings.HasPrefix(err.Error(), "unknown command"):
		fmt.Fprintf(a.stderr, "%v\n", err)
		return 2
	case config.Code(err) != "":
		fmt.Fprintf(a.stderr, "配置错误（%s）：%v\n", config.Code(err), err)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		fmt.Fprintln(a.stderr, "已中断")
	default:
		fmt.Fprintln(a.stderr, resolve.Humanize(err))
	}
	return 1
}

// usageError 标记可通过修正命令行解决的错误（退出码 2）。
type usageError struct{ error }

func usageErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// app 是命令共享的进程级依赖；测试通过替换 build 注入 provider。
type app struct {
	stdout io.Writer
	stderr io.Writer
	cwd    string
	build  func(config.EffectiveConfig, *slog.Logger) (*resolve.Engine, error)
}

func newApp(stdout, stderr io.Writer) *app {
	cwd, _ := os.Getwd()
	return &app{stdout: stdout, stderr: stderr, cwd: cwd, build: resolve.Build}
}
