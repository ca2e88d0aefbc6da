package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonemaro/dbwalk/internal/config"
	"github.com/sonemaro/dbwalk/pkg/logger"
)

// exitInterrupted is the conventional status for a SIGINT exit.
const exitInterrupted = 130

// setupSignalHandling routes SIGINT/SIGTERM to an interrupt and SIGHUP to a
// configuration reload
func (a *App) setupSignalHandling() {
	a.log.Debug("Initializing signal handlers")

	signal.Notify(a.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go a.handleSignals()
}

func (a *App) stopSignalHandling() {
	signal.Stop(a.signals)
}

// handleSignals processes incoming system signals until Shutdown
func (a *App) handleSignals() {
	for {
		select {
		case <-a.done:
			return
		case sig := <-a.signals:
			a.handleSignal(sig)
		}
	}
}

func (a *App) handleSignal(sig os.Signal) {
	a.log.WithFields(logger.Fields{
		"signal": sig.String(),
	}).Debug("Received system signal")

	switch sig {
	case syscall.SIGINT, syscall.SIGTERM:
		a.handleInterrupt()
	case syscall.SIGHUP:
		if err := a.reloadConfiguration(); err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
			}).Error("Failed to reload configuration")
		}
	}
}

// handleInterrupt clears the progress display and exits. A load pass has no
// partial result worth keeping.
func (a *App) handleInterrupt() {
	a.log.Warn("Interrupted, exiting")

	a.mu.RLock()
	prog := a.progress
	a.mu.RUnlock()
	prog.Stop()

	a.exit(exitInterrupted)
}

// reloadConfiguration re-reads the config file and environment and rebuilds
// the components used by the next Scan
func (a *App) reloadConfiguration() error {
	a.log.Debug("Reloading configuration")

	a.mu.Lock()
	defer a.mu.Unlock()

	newConfig, err := config.Load(a.config.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	// flags given on the command line win over reloaded values
	newConfig.NoColor = newConfig.NoColor || a.config.NoColor
	newConfig.NoProgress = newConfig.NoProgress || a.config.NoProgress
	if a.config.Verbose > newConfig.Verbose {
		newConfig.Verbose = a.config.Verbose
	}

	a.config = &newConfig
	a.initComponents()

	a.log.Info("Configuration reloaded successfully")
	return nil
}
