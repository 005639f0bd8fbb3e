package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xguard/pkg/config/xconf"
	"github.com/omeyang/xguard/pkg/observability/xlog"
	"github.com/omeyang/xguard/pkg/sync/xguard"
	"github.com/omeyang/xguard/pkg/sync/xlock"
)

const configSection = "xlock"

// usageError 表示参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func createDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "多个 worker 争用同一把锁，统计各意图的结果",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 8, Usage: "worker 数量"},
			&cli.IntFlag{Name: "iterations", Aliases: []string{"n"}, Value: 100, Usage: "每个 worker 的尝试次数"},
			&cli.StringFlag{Name: "intention", Aliases: []string{"i"}, Value: "mixed",
				Usage: "exclusive、readonly、upgradable 或 mixed（按 worker 轮换）"},
			&cli.StringFlag{Name: "lock", Aliases: []string{"l"}, Value: "intent", Usage: "intent 或 mutex"},
			&cli.DurationFlag{Name: "timeout", Aliases: []string{"t"}, Value: 10 * time.Millisecond,
				Usage: "每次尝试的超时，负数表示无限等待"},
			&cli.DurationFlag{Name: "hold", Value: 100 * time.Microsecond, Usage: "回调内持有锁的时间"},
			&cli.BoolFlag{Name: "diag", Usage: "开启诊断登记表并输出持有表"},
			&cli.BoolFlag{Name: "metrics", Usage: "收集锁指标并在结束时输出"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := demoOptionsFrom(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			if opts.diag {
				cfg.Diagnostics = true
			}
			return cmdDemo(ctx, cmd.Root().Writer, cmd.Root().ErrWriter, cfg, opts)
		},
	}
}

func createConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "配置相关命令",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "校验配置文件并输出生效值",
				ArgsUsage: "[file]",
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						path = cmd.String("config")
					}
					if path == "" {
						return &usageError{msg: "config check 需要配置文件路径"}
					}
					return cmdConfigCheck(cmd.Root().Writer, path)
				},
			},
		},
	}
}

type demoOptions struct {
	workers    int
	iterations int
	intentions []xlock.Intention
	mutex      bool
	timeout    time.Duration
	hold       time.Duration
	diag       bool
	metrics    bool
}

func demoOptionsFrom(cmd *cli.Command) (demoOptions, error) {
	o := demoOptions{
		workers:    cmd.Int("workers"),
		iterations: cmd.Int("iterations"),
		timeout:    cmd.Duration("timeout"),
		hold:       cmd.Duration("hold"),
		diag:       cmd.Bool("diag"),
		metrics:    cmd.Bool("metrics"),
	}
	if o.workers <= 0 || o.iterations <= 0 {
		return o, &usageError{msg: "workers 和 iterations 必须为正数"}
	}
	switch cmd.String("lock") {
	case "intent":
	case "mutex":
		o.mutex = true
	default:
		return o, &usageError{msg: fmt.Sprintf("未知的锁类型 %q", cmd.String("lock"))}
	}
	intentions, err := parseIntentions(cmd.String("intention"))
	if err != nil {
		return o, &usageError{msg: err.Error()}
	}
	o.intentions = intentions
	return o, nil
}

// parseIntentions 解析 --intention，mixed 表示三种意图轮换。
func parseIntentions(s string) ([]xlock.Intention, error) {
	if strings.EqualFold(strings.TrimSpace(s), "mixed") {
		return []xlock.Intention{xlock.Exclusive, xlock.ReadOnly, xlock.UpgradableRead}, nil
	}
	i, err := xlock.ParseIntention(s)
	if err != nil {
		return nil, err
	}
	return []xlock.Intention{i}, nil
}

func loadConfig(path string) (xlock.Config, error) {
	if path == "" {
		return xlock.DefaultConfig(), nil
	}
	cfg, err := xconf.New(path)
	if err != nil {
		return xlock.Config{}, err
	}
	return xlock.LoadConfig(cfg, configSection)
}

type outcome struct {
	granted  atomic.Int64
	timedOut atomic.Int64
}

func cmdDemo(ctx context.Context, out, errOut io.Writer, cfg xlock.Config, o demoOptions) error {
	var bootOpts []xlock.BootstrapOption
	var reader *sdkmetric.ManualReader
	if o.metrics {
		reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.WithoutCancel(ctx)) }()
		bootOpts = append(bootOpts, xlock.WithMeterProvider(mp))
	}
	rt, cleanup, err := cfg.Bootstrap(errOut, bootOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()
	// 之后的失败日志与锁日志使用同一配置
	xlog.SetDefault(rt.Logger)

	var lock xlock.Lockable
	lockOpts := rt.Options(xlock.WithName("demo"))
	if o.mutex {
		lock = xlock.NewMutex(lockOpts...)
	} else {
		if lock, err = xlock.NewIntentLock(lockOpts...); err != nil {
			return err
		}
	}
	counter := xguard.NewShared(0, lock)

	var results [3]outcome
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := range o.workers {
		intent := o.intentions[w%len(o.intentions)]
		g.Go(func() error {
			for range o.iterations {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				ok, err := counter.TryDo(gctx, intent, o.timeout, func(n *int) error {
					if intent == xlock.Exclusive {
						*n++
					}
					if o.hold > 0 {
						time.Sleep(o.hold)
					}
					return nil
				})
				if err != nil {
					return err
				}
				if ok {
					results[intent].granted.Add(1)
				} else {
					results[intent].timedOut.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	final, err := xguard.Get(ctx, counter, xlock.ReadOnly, func(n *int) (int, error) { return *n, nil })
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INTENTION\tGRANTED\tTIMED_OUT")
	for _, i := range o.intentions {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", i, results[i].granted.Load(), results[i].timedOut.Load())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "exclusive writes: %d\nelapsed: %s\n", final, elapsed.Round(time.Millisecond))

	if reader != nil {
		if err := printMetrics(ctx, out, reader); err != nil {
			return err
		}
	}
	if rt.Registry.Enabled() {
		return printHeld(ctx, out, counter, rt)
	}
	return nil
}

// printMetrics 输出计数器与等待直方图的汇总，按行排序。
func printMetrics(ctx context.Context, out io.Writer, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}
	var rows []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					rows = append(rows, fmt.Sprintf("%s\t%s\t%d", m.Name, dp.Attributes.Encoded(attribute.DefaultEncoder()), dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					rows = append(rows, fmt.Sprintf("%s\t%s\tcount=%d sum=%.6fs", m.Name,
						dp.Attributes.Encoded(attribute.DefaultEncoder()), dp.Count, dp.Sum))
				}
			}
		}
	}
	slices.Sort(rows)

	fmt.Fprintln(out, "metrics:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tATTRIBUTES\tVALUE")
	for _, r := range rows {
		fmt.Fprintln(tw, r)
	}
	return tw.Flush()
}

// printHeld 以只读意图持有锁，输出此刻的诊断持有表。
func printHeld(ctx context.Context, out io.Writer, g *xguard.Guard[int], rt *xlock.Runtime) error {
	return g.Read(ctx, func(*int) error {
		fmt.Fprintln(out, "held locks:")
		if _, err := rt.Registry.WriteTo(out); err != nil {
			return err
		}
		rt.Registry.Report(ctx, rt.Logger)
		return nil
	})
}

func cmdConfigCheck(out io.Writer, path string) error {
	c, err := loadConfig(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "config ok: %s\n", path)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "diagnostics\t%t\n", c.Diagnostics)
	fmt.Fprintf(tw, "wait_slice\t%s\n", c.WaitSlice)
	fmt.Fprintf(tw, "registry_shards\t%d\n", c.RegistryShards)
	fmt.Fprintf(tw, "log.level\t%s\n", c.Log.Level)
	fmt.Fprintf(tw, "log.format\t%s\n", c.Log.Format)
	fmt.Fprintf(tw, "log.add_source\t%t\n", c.Log.AddSource)
	if c.Log.File != "" {
		fmt.Fprintf(tw, "log.file\t%s (max %dMB)\n", c.Log.File, cmp.Or(c.Log.MaxSizeMB, xlog.DefaultMaxSizeMB))
	}
	return tw.Flush()
}
