// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Agentpilot drives a browser-automation engine from the terminal: it
// starts a natural-language task, tracks it over the engine's dual
// status channels (REST polling plus WebSocket push), and hands
// control to the operator when the agent requests human intervention.
//
// Usage:
//
//	agentpilot [flags] <task...>
//
// The engine location and timing come from a YAML config file named by
// the AGENTPILOT_CONFIG environment variable or --config; flags
// override individual fields. A .env file in the working directory is
// loaded first, so AGENTPILOT_CONFIG can live there.
//
// The first Ctrl-C requests cooperative cancellation of the running
// job; the second exits immediately.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/tidewire/agentpilot/agent"
	"github.com/tidewire/agentpilot/capture"
	"github.com/tidewire/agentpilot/history"
	"github.com/tidewire/agentpilot/lib/config"
	"github.com/tidewire/agentpilot/lib/version"
	"github.com/tidewire/agentpilot/notify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agentpilot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath      string
		engineURL       string
		startURL        string
		maxSteps        int
		noIntervention  bool
		takeover        bool
		historyPath     string
		logLevel        string
		showVersion     bool
		healthCheckOnly bool
	)

	flagSet := pflag.NewFlagSet("agentpilot", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $AGENTPILOT_CONFIG)")
	flagSet.StringVar(&engineURL, "engine", "", "engine base URL (overrides config)")
	flagSet.StringVar(&startURL, "url", "", "page the agent should start on")
	flagSet.IntVar(&maxSteps, "max-steps", 0, "cap on agent steps (0 = engine default)")
	flagSet.BoolVar(&noIntervention, "no-intervention", false, "tell the agent to never pause for human input")
	flagSet.BoolVar(&takeover, "takeover", false, "immediately request manual control once the job is running")
	flagSet.StringVar(&historyPath, "history", "", "JSONL history file (overrides config)")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flagSet.BoolVar(&healthCheckOnly, "check", false, "check engine health and exit")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		version.Print("agentpilot")
		return nil
	}

	// A .env in the working directory may carry AGENTPILOT_CONFIG;
	// absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if engineURL != "" {
		cfg.Engine.BaseURL = engineURL
	}
	if historyPath != "" {
		cfg.History.Path = historyPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	}))

	client, err := agent.NewClient(agent.ClientConfig{
		BaseURL: cfg.Engine.BaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	requestTimeout := cfg.Engine.RequestTimeout.Std()
	healthCtx, healthCancel := context.WithTimeout(context.Background(), requestTimeout)
	health, err := client.Health(healthCtx)
	healthCancel()
	if err != nil {
		return fmt.Errorf("engine at %s is not reachable: %w", cfg.Engine.BaseURL, err)
	}
	if healthCheckOnly {
		fmt.Printf("engine ok (%d active jobs)\n", health.ActiveJobs)
		return nil
	}

	task := strings.TrimSpace(strings.Join(flagSet.Args(), " "))
	if task == "" {
		printHelp(flagSet)
		return fmt.Errorf("a task is required")
	}

	var recorder history.Recorder = history.Discard{}
	if cfg.History.Path != "" {
		jsonl, err := history.NewJSONLRecorder(cfg.History.Path)
		if err != nil {
			return err
		}
		recorder = jsonl
	}

	var collection capture.Collection
	if cfg.Capture.Enabled {
		// In-process collection until a collections backend is wired
		// up; the end-of-run summary still reports what would have
		// been captured.
		collection = capture.NewMemoryCollection()
	}

	controller, err := agent.NewController(agent.ControllerConfig{
		Client:          client,
		PollInterval:    cfg.Engine.PollInterval.Std(),
		Logger:          logger,
		Notifier:        notify.Func(printNotification),
		History:         recorder,
		Collection:      collection,
		CaptureFolderID: cfg.Capture.FolderID,
	})
	if err != nil {
		return err
	}
	defer controller.Reset()

	startCtx, startCancel := context.WithTimeout(context.Background(), requestTimeout)
	jobID, err := controller.Start(startCtx, agent.StartRequest{
		Task:              task,
		URL:               startURL,
		MaxSteps:          maxSteps,
		AllowIntervention: !noIntervention,
	})
	startCancel()
	if err != nil {
		return err
	}
	fmt.Printf("job %s started\n", jobID)
	startedAt := time.Now()

	if takeover {
		if err := requestTakeover(controller, requestTimeout); err != nil {
			printNotification(notify.Warning, fmt.Sprintf("manual takeover failed: %v", err))
		}
	}

	return track(controller, requestTimeout, startedAt)
}

// track follows the job to a terminal status, printing progress,
// handling intervention prompts, and accepting operator commands
// (reconnect, cancel) from stdin. Returns once the job settles or the
// operator force-quits.
func track(controller *agent.Controller, requestTimeout time.Duration, startedAt time.Time) error {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	// One reader owns stdin for the whole run; lines are interpreted
	// by whatever mode the job is in when they arrive.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	done := controller.Done()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var lastLine string
	var prompted bool
	cancelRequested := false

	for {
		select {
		case <-done:
			printSummary(controller, startedAt)
			return nil

		case <-signals:
			if cancelRequested {
				return fmt.Errorf("interrupted")
			}
			cancelRequested = true
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			err := controller.Cancel(ctx)
			cancel()
			if err != nil && !errors.Is(err, agent.ErrCancelPending) {
				printNotification(notify.Error, fmt.Sprintf("cancel failed: %v", err))
			}

		case line, ok := <-lines:
			if !ok {
				// Stdin closed; keep tracking without a prompt.
				lines = nil
				continue
			}
			if controller.Job().Status == agent.StatusWaitingHuman {
				handleInterventionLine(controller, requestTimeout, line)
			} else {
				handleCommandLine(controller, requestTimeout, line)
			}

		case <-ticker.C:
			job := controller.Job()
			if line := renderStatusLine(job); line != lastLine {
				fmt.Println(line)
				lastLine = line
			}
			if job.Status != agent.StatusWaitingHuman {
				prompted = false
				continue
			}
			if !prompted {
				prompted = true
				printInterventionPrompt(controller)
			}
		}
	}
}

// printInterventionPrompt shows the intervention context and the
// available commands.
func printInterventionPrompt(controller *agent.Controller) {
	interventionType, reason, _, currentURL := controller.Intervention().Context()
	fmt.Println()
	fmt.Printf("agent needs help (%s): %s\n", interventionType, reason)
	if currentURL != "" {
		fmt.Printf("current page: %s\n", currentURL)
	}
	fmt.Println("commands: click <x> <y> | type <selector> <text> | nav <url> | script <js> | skip [msg] | abort [msg]")
	fmt.Print("> ")
}

// handleInterventionLine parses and submits one operator action while
// the job is waiting for human input.
func handleInterventionLine(controller *agent.Controller, requestTimeout time.Duration, line string) {
	action, err := parseActionCommand(line)
	if err != nil {
		fmt.Println(err)
		fmt.Print("> ")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	err = controller.Intervention().Submit(ctx, action)
	cancel()
	switch {
	case err == nil:
		fmt.Println("action submitted; agent resuming")
	case errors.Is(err, agent.ErrNotWaitingHuman):
		fmt.Println("job already moved on")
	case errors.Is(err, agent.ErrCancelPending), errors.Is(err, agent.ErrNoActiveJob):
	default:
		// Submission failed; the job is still waiting, retry.
		fmt.Printf("submit failed (%v), try again\n", err)
		fmt.Print("> ")
	}
}

// handleCommandLine interprets operator input outside an intervention:
// manual reconnect of the push channel and cancellation.
func handleCommandLine(controller *agent.Controller, requestTimeout time.Duration, line string) {
	switch strings.TrimSpace(line) {
	case "":
	case "reconnect", "r":
		if err := controller.Reconnect(); err != nil {
			printNotification(notify.Warning, fmt.Sprintf("reconnect: %v", err))
		}
	case "cancel", "c":
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		err := controller.Cancel(ctx)
		cancel()
		if err != nil && !errors.Is(err, agent.ErrCancelPending) {
			printNotification(notify.Error, fmt.Sprintf("cancel failed: %v", err))
		}
	default:
		fmt.Println("commands: reconnect | cancel")
	}
}

// parseActionCommand turns one prompt line into a HumanAction.
// Coordinates are in the screenshot's natural pixel grid; graphical
// front ends run pointer events through screen.MapClick first, but at
// the prompt the operator supplies engine coordinates directly.
func parseActionCommand(line string) (agent.HumanAction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return agent.HumanAction{}, fmt.Errorf("empty command")
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case "click":
		if len(fields) != 3 {
			return agent.HumanAction{}, fmt.Errorf("usage: click <x> <y>")
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX != nil || errY != nil {
			return agent.HumanAction{}, fmt.Errorf("click coordinates must be integers")
		}
		return agent.EncodeAction(agent.ActionClick, agent.ActionFields{X: &x, Y: &y}), nil
	case "type":
		if len(fields) < 3 {
			return agent.HumanAction{}, fmt.Errorf("usage: type <selector> <text>")
		}
		text := strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
		return agent.EncodeAction(agent.ActionTypeText, agent.ActionFields{
			Selector: fields[1],
			Value:    text,
		}), nil
	case "nav":
		if len(fields) != 2 {
			return agent.HumanAction{}, fmt.Errorf("usage: nav <url>")
		}
		return agent.EncodeAction(agent.ActionNavigate, agent.ActionFields{Value: fields[1]}), nil
	case "script":
		if rest == "" {
			return agent.HumanAction{}, fmt.Errorf("usage: script <javascript>")
		}
		return agent.EncodeAction(agent.ActionCustom, agent.ActionFields{CustomScript: rest}), nil
	case "skip":
		return agent.EncodeAction(agent.ActionSkip, agent.ActionFields{Message: rest}), nil
	case "abort":
		return agent.EncodeAction(agent.ActionAbort, agent.ActionFields{Message: rest}), nil
	default:
		return agent.HumanAction{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

// requestTakeover asks the engine to pause for manual control.
func requestTakeover(controller *agent.Controller, requestTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	response, err := controller.RequestManualTakeover(ctx)
	if err != nil {
		return err
	}
	if response.CurrentURL != "" {
		fmt.Printf("taking over at %s\n", response.CurrentURL)
	}
	return nil
}

// printSummary reports the terminal outcome, duration, and capture
// counts.
func printSummary(controller *agent.Controller, startedAt time.Time) {
	job := controller.Job()
	fmt.Println()
	fmt.Printf("%s in %s\n", statusBadge(job.Status), time.Since(startedAt).Round(time.Second))
	if job.Result != "" {
		fmt.Println(job.Result)
	}
	if job.Error != "" {
		fmt.Println(job.Error)
	}
	if len(job.URLsVisited) > 0 {
		fmt.Printf("visited %d pages\n", len(job.URLsVisited))
	}
	if stats := controller.CaptureStats(); stats.Captured > 0 || stats.Skipped > 0 {
		fmt.Printf("captured %d urls (%d skipped)\n", stats.Captured, stats.Skipped)
	}
}

func printNotification(level notify.Level, message string) {
	fmt.Printf("%s %s\n", levelBadge(level), message)
}

func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Agentpilot — terminal front end for the browser-automation engine.

Starts a natural-language task, follows it over REST polling and
WebSocket push, and prompts for input when the agent requests human
intervention.

Usage:
  agentpilot [flags] <task...>

Examples:
  # Run a task against the default local engine
  agentpilot "find the three latest releases of Go and summarize them"

  # Start on a specific page with a step cap
  agentpilot --url https://news.ycombinator.com --max-steps 25 "summarize the front page"

  # Check that the engine is up
  agentpilot --check

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
