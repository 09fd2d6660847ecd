package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"isd/auditlog"
	"isd/control"
	"isd/log"
	"isd/supervisor"
)

// RunDaemon is the entry point for a relaunched background daemon process
// (see bootstrap.IsDaemonInvocation). It never goes through cobra: by the
// time it is invoked, argument parsing is already done (the directive, if
// any, has been decoded by main from the relaunch's argv).
//
// Grounded on cmd/build.go's signal.Notify(os.Interrupt, syscall.SIGTERM,
// syscall.SIGHUP) + cleanup-goroutine pattern, generalized from one-shot
// build cleanup to the supervisor's stop-everything-then-exit shutdown.
func RunDaemon(initial control.Directive) {
	cfg := loadDaemonConfig()

	logger, err := log.NewLogger(cfg.LogPath, cfg.DebugPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "isd: cannot open log %s: %v\n", cfg.LogPath, err)
		os.Exit(1)
	}
	defer logger.Close()

	osname, release, arch, ncpus := log.HostInfo()
	logger.Info("isd daemon starting on %s %s/%s (%d cpus), table=%s socket=%s grace_period=%s",
		osname, release, arch, ncpus, cfg.TablePath, cfg.SocketPath, cfg.GracePeriod)

	audit, err := auditlog.Open(cfg.AuditPath)
	if err != nil {
		logger.Warn("audit journal unavailable, proceeding without history: %v", err)
	} else {
		defer audit.Close()
	}

	var recorder supervisor.AuditRecorder
	if audit != nil {
		recorder = &auditlog.Sink{Log: audit, Logger: logger}
	}

	recon := supervisor.NewReconciler(cfg.TablePath, logger, recorder, cfg.GracePeriod)

	switch initial.Verb {
	case "tell":
		if err := recon.Tell(initial.Group, initial.Runlevel); err != nil {
			logger.Error("initial reconcile failed: %v", err)
		}
	case "stopall":
		recon.StopAll()
	}

	server := &control.Server{Path: cfg.SocketPath, Logger: logger, Handler: recon}
	if err := server.Listen(); err != nil {
		logger.Error("cannot bind control socket: %v", err)
		os.Exit(1)
	}
	defer server.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGCHLD)
	defer signal.Stop(sigCh)

	drainTicker := time.NewTicker(cfg.DrainTick)
	defer drainTicker.Stop()

	stopBackground := make(chan struct{})
	defer close(stopBackground)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGCHLD {
					if err := recon.DrainReaper(); err != nil {
						logger.Error("reaper drain failed: %v", err)
					}
					continue
				}
				logger.Info("received signal %v, stopping all tags", sig)
				recon.StopAll()
				server.Stop()
				return
			case <-drainTicker.C:
				if err := recon.DrainReaper(); err != nil {
					logger.Error("periodic reaper drain failed: %v", err)
				}
			case <-stopBackground:
				return
			}
		}
	}()

	err = server.Serve()
	if err != nil && !errors.Is(err, control.ErrStopped) {
		logger.Error("control server stopped: %v", err)
	}
	logger.Info("isd daemon exiting")
}
