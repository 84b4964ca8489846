package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"

	"github.com/shengyanli1982/bookbff-go/internal/config"
	"github.com/shengyanli1982/bookbff-go/internal/metrics"
	"github.com/shengyanli1982/bookbff-go/internal/server"
	"github.com/shengyanli1982/gs"
	"github.com/shengyanli1982/law"
	"github.com/shengyanli1982/orbit/utils/log"
)

// Version 通过 ldflags 在编译时设置
var Version = "0.1.0"

const banner = `
 ____              _    ____  _____ _____
| __ )  ___   ___ | | _| __ )|  ___|  ___|
|  _ \ / _ \ / _ \| |/ /  _ \| |_  | |_
| |_) | (_) | (_) |   <| |_) |  _| |  _|
|____/ \___/ \___/|_|\_\____/|_|   |_|
`

// app 进程内的服务组件
type app struct {
	logger      *logr.Logger
	asyncWriter *law.WriteAsyncer
	configMgr   *config.Manager
	runtime     *server.Runtime
	server      *server.Server
}

func isReleaseMode(releaseMode bool) bool {
	return releaseMode || gin.Mode() == gin.ReleaseMode
}

// initLogger 初始化日志，发布模式使用异步写入
func initLogger(out io.Writer, releaseMode, jsonOutput bool) (*logr.Logger, *law.WriteAsyncer) {
	if !isReleaseMode(releaseMode) {
		return log.NewLogrLogger(out, false).GetLogrLogger(), nil
	}

	asyncWriter := law.NewWriteAsyncer(out, law.DefaultConfig())
	if jsonOutput {
		return log.NewZapLogger(zapcore.AddSync(asyncWriter), true).GetLogrLogger(), asyncWriter
	}
	return log.NewLogrLogger(asyncWriter, true).GetLogrLogger(), asyncWriter
}

func loadConfig(configPath string) (*config.Manager, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create configuration manager: %w", err)
	}
	if err := manager.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return manager, nil
}

// build 创建运行时组件和服务器
func (a *app) build(releaseMode bool) error {
	collector, err := server.SharedCollector()
	if err != nil {
		return fmt.Errorf("failed to create metrics collector: %w", err)
	}

	a.runtime, err = server.NewRuntime(context.Background(), a.configMgr.GetConfig(), collector, *a.logger)
	if err != nil {
		return err
	}

	a.server, err = server.NewServer(!releaseMode, *a.logger, a.runtime,
		metrics.GetGlobalRegistry().GetRegistry(), Version)
	if err != nil {
		_ = a.runtime.Close()
		return err
	}
	return nil
}

// setup 初始化日志、加载配置并创建服务器，失败时先刷新日志再返回
func (a *app) setup(out io.Writer, configPath string, releaseMode, jsonOutput bool) error {
	a.logger, a.asyncWriter = initLogger(out, releaseMode, jsonOutput)

	var err error
	a.configMgr, err = loadConfig(configPath)
	if err != nil {
		a.logger.Error(err, "Failed to load service configuration")
		a.flushLogs()
		return err
	}
	a.logger.Info("Configuration loaded successfully", "path", a.configMgr.GetConfigPath())

	if err := a.build(releaseMode); err != nil {
		a.logger.Error(err, "Failed to initialize services")
		a.flushLogs()
		return err
	}
	return nil
}

// flushLogs 启动失败时刷新异步日志
func (a *app) flushLogs() {
	klog.Flush()
	if a.asyncWriter != nil {
		a.asyncWriter.Stop()
	}
}

// waitForShutdown 等待终止信号，先停服务器再刷新日志
func (a *app) waitForShutdown(releaseMode bool) {
	serverSignal := gs.NewTerminateSignal()
	serverSignal.RegisterCancelHandles(a.server.Stop)

	writerSignal := gs.NewTerminateSignal()
	if isReleaseMode(releaseMode) && a.asyncWriter != nil {
		writerSignal.RegisterCancelHandles(a.asyncWriter.Stop)
	}

	gs.WaitForSync(serverSignal, writerSignal)
}

func main() {
	var (
		configPath  string
		releaseMode bool
		jsonOutput  bool
	)

	cmd := cobra.Command{
		Use:     "bookbff",
		Version: Version,
		Short:   "BookBFF is the edge service in front of the book, customer and recommendation services",
		Long: `BookBFF is the HTTP edge in front of the book catalogue.

It serves /books/{isbn}/related-books through a circuit breaker whose state
is persisted (file, memory, redis or badger) so every replica sharing the
store agrees on whether the recommendation service is being shed. All other
paths are passed through to the configured upstreams by route prefix.

Author: shengyanli1982`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &app{}
			if err := a.setup(os.Stdout, configPath, releaseMode, jsonOutput); err != nil {
				return err
			}

			fmt.Print(banner, "\n")

			a.server.Start()
			a.logger.Info("BookBFF started successfully", "version", Version)

			a.waitForShutdown(releaseMode)

			a.logger.Info("BookBFF stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "./config.yaml", "Path to configuration file")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Enable JSON format logging output (only effective in release mode)")
	cmd.Flags().BoolVarP(&releaseMode, "release", "r", false, "Enable release mode for performance optimizations and async logging")

	if err := cmd.Execute(); err != nil {
		fmt.Printf("Failed to execute command: %v\n", err)
		os.Exit(-1)
	}
}
