// xlockctl 是 xlock 锁引擎的命令行工具，用于演示争用场景和校验配置。
//
// 用法:
//
//	xlockctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   配置文件路径（.yaml/.yml/.json），读取其中的 xlock 段
//
// 命令:
//
//	demo           启动若干 worker 争用同一把锁，输出各意图的成功/超时次数
//	config check   校验配置文件
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（配置无效、加载失败等）
//	2: 参数错误
//
// 示例:
//
//	xlockctl demo --workers 16 --intention mixed --timeout 5ms
//	xlockctl demo --lock mutex --diag
//	xlockctl -c app.yaml config check
//	xlockctl config check app.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xguard/pkg/observability/xlog"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xlockctl",
		Usage:   "xlock 锁引擎命令行工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径，读取 xlock 段",
			},
		},
		Commands: []*cli.Command{
			createDemoCommand(),
			createConfigCommand(),
		},
		// 由 run() 统一映射退出码
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, args); err != nil {
		var uerr *usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", uerr)
			return 2
		}
		xlog.Default().Error(ctx, "xlockctl failed", xlog.Err(err))
		return 1
	}
	return 0
}
