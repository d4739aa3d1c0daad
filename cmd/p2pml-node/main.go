package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/bfix/gospel/logger"

	"github.com/elien2016/p2pml/config"
	"github.com/elien2016/p2pml/diag"
	"github.com/elien2016/p2pml/node"
	"github.com/elien2016/p2pml/predictors"
)

func main() {
	defer func() {
		logger.Println(logger.INFO, "[p2pml] Bye.")
		logger.Flush()
	}()
	logger.Println(logger.INFO, "[p2pml] Starting node...")

	var cfgFile string
	flag.StringVar(&cfgFile, "c", "p2pml-config.json", "node configuration file")
	flag.Parse()

	if err := config.Parse(cfgFile); err != nil {
		logger.Printf(logger.ERROR, "[p2pml] Invalid configuration file: %s\n", err.Error())
		return
	}
	logger.SetLogLevel(config.Cfg.LogLevel)

	n, err := node.New(config.Cfg)
	if err != nil {
		logger.Printf(logger.ERROR, "[p2pml] Failed to construct node: %s\n", err.Error())
		return
	}

	for _, m := range config.Cfg.Models {
		p, err := predictors.LoadFile(m.Path)
		if err != nil {
			logger.Printf(logger.ERROR, "[p2pml] Failed to load model %q: %s\n", m.Name, err.Error())
			continue
		}
		n.LoadModel(m.Name, p)
		logger.Printf(logger.INFO, "[p2pml] Loaded model %q from %s\n", m.Name, m.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Cfg.DiagnosticsAddr != "" {
		diagSrv := diag.NewServer(config.Cfg.DiagnosticsAddr, n)
		go func() {
			if err := diagSrv.Run(ctx); err != nil {
				logger.Printf(logger.ERROR, "[p2pml] Diagnostics server failed: %s\n", err.Error())
			}
		}()
	}

	sigCh := make(chan os.Signal, 5)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf(logger.INFO, "[p2pml] Terminating node (on signal '%s')\n", sig)
		cancel()
	}()

	if err := n.Run(ctx); err != nil {
		logger.Printf(logger.ERROR, "[p2pml] Node exited: %s\n", err.Error())
	}
}
