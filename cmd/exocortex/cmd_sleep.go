package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/exocortex-go/exocortex/internal/dream"
)

var sleepDetach bool

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Run one background consolidation pass (dedup, orphan rescue, pattern mining)",
	Run: func(cmd *cobra.Command, args []string) {
		runSleep()
	},
}

var sleepStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a dream worker is currently running",
	Run: func(cmd *cobra.Command, args []string) {
		runSleepStatus()
	},
}

var sleepStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal a running dream worker to stop",
	Run: func(cmd *cobra.Command, args []string) {
		runSleepStop()
	},
}

func init() {
	sleepCmd.AddCommand(sleepStatusCmd, sleepStopCmd)
	rootCmd.AddCommand(sleepCmd)

	sleepCmd.Flags().BoolVar(&sleepDetach, "detach", false, "spawn the worker in the background and return immediately")
}

func runSleep() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}

	if sleepDetach {
		a.close()
		if err := detachSleep(); err != nil {
			fatalf("Error detaching: %v", err)
		}
		fmt.Println("Dream worker started in the background")
		return
	}
	defer a.close()

	opts := dream.DefaultOptions()
	opts.LockTimeout = a.cfg.Dream.LockTimeout
	opts.MaxRuntime = a.cfg.Dream.MaxRuntime

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := dream.New(a.repo, a.st, a.cfg.DataDir, opts)
	if err := w.Run(ctx); err != nil {
		fatalf("Error running dream worker: %v", err)
	}
}

func detachSleep() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, "sleep")
	setProcAttr(cmd)
	return cmd.Start()
}

func runSleepStatus() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	if !dream.IsRunning(a.cfg.DataDir) {
		fmt.Println("No dream worker is running")
		return
	}
	state, err := dream.ReadState(a.cfg.DataDir)
	if err != nil {
		fatalf("Error reading worker state: %v", err)
	}
	fmt.Printf("Dream worker running (pid %d, started %s)\n", state.PID, state.StartedAt.Format("2006-01-02 15:04:05"))
}

func runSleepStop() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	if !dream.IsRunning(a.cfg.DataDir) {
		fmt.Println("No dream worker is running")
		return
	}
	if err := dream.Stop(a.cfg.DataDir); err != nil {
		fatalf("Error stopping worker: %v", err)
	}
	fmt.Println("Sent stop signal to dream worker")
}
