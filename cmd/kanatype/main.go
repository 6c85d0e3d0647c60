// Copyright 2026 The KanaType Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the typing engine server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

KanaType resolves romaji keystrokes against kana phrases in real time,
accepting every standard romanization of a unit at once. It can operate as a
MessagePack IPC server for integration with game frontends, or as a CLI
application for testing and debugging.

Matching is driven by a pattern table that maps each kana unit to its
acceptable spellings, with context-dependent handling for the sokuon and the
moraic n. Score calculation runs on a background worker pool with a
synchronous fallback, so results are identical whether or not workers could
be spawned.

# Usage

Start the server with default settings:

	kanatype

Enable debug mode:

	kanatype -d

Run in CLI mode for interactive practice:

	kanatype -c -phrases 5

# Configuration

Runtime configuration is managed through a TOML file that supports engine
parameters, dispatcher settings, and CLI defaults:

	[engine]
	match_cache_size = 1000
	display_cache_size = 500

	[dispatch]
	workers = 0
	ping_timeout_ms = 1000
	score_memo_size = 500

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Requests are
processed synchronously with microsecond timing information included in
responses.

Open a session and feed it keystrokes:

	{"id": "req1", "cmd": "start", "t": "にほんご"}
	{"id": "req2", "cmd": "key", "sid": "sess_0001", "k": "n"}

Request a score breakdown:

	{"id": "req3", "cmd": "score", "cc": 320, "mc": 4, "ms": 60000}

# Server Mode

The default mode starts a MessagePack IPC server that processes requests
from stdin and writes responses to stdout. This design enables integration
with game frontends and editors through process communication.

	srv := server.NewServer(dispatcher, appConfig)
	err := srv.Start()

# CLI Mode

CLI mode provides an interactive practice loop for testing and debugging the
matcher. It shows kana phrases, reads romaji lines from stdin, replays them
through the matcher keystroke by keystroke, and prints the score for each
round.

	inputHandler := cli.NewInputHandler(matcher, dispatcher, phrases, showRomaji)
	err := inputHandler.Start()

This mode is primarily intended for development and testing new features
before deploying to server mode.

# Command Line Flags

The following flags control application behavior:

	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-phrases int
	    Number of practice phrases per CLI session
	-no-romaji
	    Hide the romaji hint in CLI mode
	-config string
	    Path to a custom TOML config file
	-version
	    Show current version

# Dispatcher

Score calculations run through a worker pool that is probed at startup.
If no worker can be spawned the dispatcher degrades to synchronous inline
execution with identical results, so the engine keeps working in any
environment.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/kanatype/kanatype/internal/cli"
	"github.com/kanatype/kanatype/internal/logger"
	"github.com/kanatype/kanatype/pkg/config"
	"github.com/kanatype/kanatype/pkg/dispatch"
	"github.com/kanatype/kanatype/pkg/match"
	"github.com/kanatype/kanatype/pkg/server"
)

const (
	Version = "0.3.0-beta"
	AppName = "kanatype"
	gh      = "https://github.com/kanatype/kanatype"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	phrases := flag.Int("phrases", defaultConfig.CLI.Phrases, "Number of practice phrases per CLI session")
	noRomaji := flag.Bool("no-romaji", !defaultConfig.CLI.ShowRomaji, "Hide the romaji hint in CLI mode")
	configPath := flag.String("config", "", "Path to a custom TOML config file")

	flag.Parse()

	if *showVersion {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
			Prefix:          "",
		})

		styles := log.DefaultStyles()

		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		styles.Values["version"] = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})

		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

		logger.SetStyles(styles)

		logger.Print("")
		logger.Print("[ KanaType ] Real-time kana typing engine!")
		logger.Print("", "version", Version)
		logger.Print("")
		logger.Print("use -h or --help to see available options")
		logger.Print("Github Repo", "gh", gh)

		os.Exit(0)
	}

	if *debugMode {
		log.SetDefault(logger.NewWithConfig(AppName, log.DebugLevel, false, true, log.TextFormatter))
	} else {
		log.SetDefault(logger.NewWithConfig(AppName, log.WarnLevel, false, false, log.TextFormatter))
	}

	appConfig, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	if activePath != "" {
		log.Debugf("Using config file: (%s)", activePath)
	}

	dispatcher := dispatch.New(dispatch.Config{
		Workers:     appConfig.Dispatch.Workers,
		PingTimeout: time.Duration(appConfig.Dispatch.PingTimeoutMs) * time.Millisecond,
		MemoSize:    appConfig.Dispatch.ScoreMemoSize,
	})
	if err := dispatcher.Init(); err != nil {
		log.Fatalf("Failed to init dispatcher: %v", err)
		os.Exit(1)
	}
	defer dispatcher.Shutdown()
	log.Debugf("Dispatcher state: %s", dispatcher.State())

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"phrases", *phrases,
			"showRomaji", !*noRomaji)

		matcher := match.NewMatcherWithCaches(
			match.NewCache(appConfig.Engine.MatchCacheSize),
			match.NewCache(appConfig.Engine.DisplayCacheSize),
		)
		inputHandler := cli.NewInputHandler(matcher, dispatcher, *phrases, !*noRomaji)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
			os.Exit(1)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(dispatcher, appConfig)

	showStartupInfo(dispatcher)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(d *dispatch.Dispatcher) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "==========")
	fmt.Fprintln(os.Stderr, " KanaType ")
	fmt.Fprintln(os.Stderr, "==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("dispatcher: ( %s )", d.State())
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "==========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
