// Package control lets an operator halt a long-running sweep cleanly
// between runs: a Ctrl-C, a stop file dropped on disk, or a direct call all
// route through the same Controller so pkg/experiment only has to check
// one channel.
package control

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Controller watches for a sweep-abort request and fans it out to every
// registered callback exactly once.
type Controller struct {
	stopFile       string
	stopCh         chan struct{}
	stopped        bool
	mutex          sync.RWMutex
	callbacks      []func()
	pollInterval   time.Duration
	signalHandlers bool
}

// Config configures a new Controller.
type Config struct {
	// StopFile is the path watched for an abort request.
	StopFile string

	// PollInterval is how often StopFile's existence is checked.
	PollInterval time.Duration

	// EnableSignalHandlers additionally aborts on SIGINT/SIGTERM.
	EnableSignalHandlers bool
}

// New creates a Controller from config, filling in defaults for any zero
// fields.
func New(config Config) *Controller {
	if config.StopFile == "" {
		config.StopFile = "/tmp/loadsim-abort"
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}

	return &Controller{
		stopFile:       config.StopFile,
		stopCh:         make(chan struct{}),
		callbacks:      make([]func(), 0),
		pollInterval:   config.PollInterval,
		signalHandlers: config.EnableSignalHandlers,
	}
}

// Start begins watching for abort conditions in the background. It returns
// immediately; ctx cancellation stops all watchers.
func (c *Controller) Start(ctx context.Context) {
	go c.watchStopFile(ctx)

	if c.signalHandlers {
		go c.watchSignals(ctx)
	}
}

// watchStopFile polls for the existence of the stop file.
func (c *Controller) watchStopFile(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.checkStopFile() {
				fmt.Printf("🛑 abort file detected: %s\n", c.stopFile)
				c.triggerStop("stop file detected")
				return
			}
		}
	}
}

// watchSignals listens for SIGINT/SIGTERM.
func (c *Controller) watchSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		signal.Stop(sigCh)
		return
	case sig := <-sigCh:
		fmt.Printf("🛑 abort signal received: %v\n", sig)
		c.triggerStop(fmt.Sprintf("signal: %v", sig))
		signal.Stop(sigCh)
		return
	}
}

func (c *Controller) checkStopFile() bool {
	_, err := os.Stat(c.stopFile)
	return err == nil
}

func (c *Controller) triggerStop(reason string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopped {
		return
	}

	c.stopped = true
	close(c.stopCh)

	fmt.Printf("🚨 SWEEP ABORTED: %s\n", reason)

	for i, callback := range c.callbacks {
		fmt.Printf("   running abort callback %d/%d...\n", i+1, len(c.callbacks))
		callback()
	}
}

// Stop triggers an abort directly, e.g. from a CLI flag or a failed
// pre-flight check.
func (c *Controller) Stop(reason string) {
	c.triggerStop(reason)
}

// Aborted reports whether an abort has been triggered.
func (c *Controller) Aborted() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.stopped
}

// Done returns a channel that closes once an abort is triggered. The
// experiment driver checks it once before each sweep point; a point that is
// already running is not interrupted.
func (c *Controller) Done() <-chan struct{} {
	return c.stopCh
}

// OnStop registers a callback run when an abort is triggered. Order of
// execution matches registration order.
func (c *Controller) OnStop(callback func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// CreateStopFile writes the abort file, the manual equivalent of sending a
// signal for operators who prefer touching a file over a shell's job
// control.
func (c *Controller) CreateStopFile() error {
	f, err := os.Create(c.stopFile)
	if err != nil {
		return fmt.Errorf("failed to create stop file: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(fmt.Sprintf("sweep abort requested at %s\n", time.Now().Format(time.RFC3339)))
	if err != nil {
		return fmt.Errorf("failed to write to stop file: %w", err)
	}
	return nil
}

// RemoveStopFile removes the abort file, if present.
func (c *Controller) RemoveStopFile() error {
	err := os.Remove(c.stopFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stop file: %w", err)
	}
	return nil
}

// StopFilePath returns the path being watched.
func (c *Controller) StopFilePath() string {
	return c.stopFile
}
