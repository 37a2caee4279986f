package main

import (
	"os"
	"os/signal"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/Othernet-Project/fsal/pkg/cmd"
	"github.com/Othernet-Project/fsal/pkg/configuration"
	"github.com/Othernet-Project/fsal/pkg/daemon"
	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/logging"
	"github.com/Othernet-Project/fsal/pkg/manager"
	"github.com/Othernet-Project/fsal/pkg/ondd"
	"github.com/Othernet-Project/fsal/pkg/scheduler"
	"github.com/Othernet-Project/fsal/pkg/server"
	"github.com/Othernet-Project/fsal/pkg/store"
	"github.com/Othernet-Project/fsal/pkg/watcher"
)

func daemonRunMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 0 {
		return errors.New("unexpected arguments provided")
	}

	// Load the configuration file.
	config, err := configuration.Load(daemonRunConfiguration.configurationPath)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}

	// Configure logging.
	level, ok := logging.NameToLevel(config.Logging.Level)
	if !ok {
		return errors.Errorf("invalid log level: %s", config.Logging.Level)
	}
	logging.SetLevel(level)
	logging.ConfigureFile(config.Logging.File, logging.RotationOptions{
		MaximumSize:    config.Logging.MaxSize,
		MaximumBackups: config.Logging.MaxBackups,
		MaximumAge:     config.Logging.MaxAge,
	})
	logger := logging.RootLogger

	// Attempt to acquire the daemon lock and defer its release. If there is a
	// crash, the lock will be released by the OS automatically.
	lock, err := daemon.AcquireLock(daemonRunConfiguration.lockPath)
	if err != nil {
		return errors.Wrap(err, "unable to acquire daemon lock")
	}
	defer lock.Release()

	// Record our PID and defer its removal.
	if err := daemon.WritePID(daemonRunConfiguration.pidPath, os.Getpid()); err != nil {
		return err
	}
	defer daemon.RemovePID(daemonRunConfiguration.pidPath)

	// Create a channel to track termination signals. We do this before
	// creating and starting other infrastructure so that we can ensure things
	// terminate smoothly, not mid-initialization.
	signalTermination := make(chan os.Signal, 1)
	signal.Notify(signalTermination, cmd.TerminationSignals...)

	// Open the index database and defer its closure.
	st, err := store.Open(config.Database, logger.Sublogger("store"))
	if err != nil {
		return errors.Wrap(err, "unable to open index database")
	}
	defer st.Close()

	// Create the change event queue.
	queue := events.NewQueue(st, logger.Sublogger("events"))

	// Create the task scheduler and the manager, and start them. Starting the
	// manager kicks off the initial full reconcile.
	sched := scheduler.New(logger.Sublogger("scheduler"))
	mgr, err := manager.New(config, st, queue, sched, logger.Sublogger("manager"))
	if err != nil {
		return errors.Wrap(err, "unable to create manager")
	}
	mgr.Start()
	defer mgr.Stop()

	// Start the delivery notification listener, if configured.
	if config.ONDD.Socket != "" {
		listener := ondd.NewListener(
			config.ONDD.Socket,
			mgr.HandleNotifications,
			logger.Sublogger("ondd"),
		)
		listener.Start()
		defer listener.Stop()
	}

	// Start the live filesystem watcher, if enabled.
	if config.FSAL.Watch {
		liveWatcher, err := watcher.New(mgr, logger.Sublogger("watcher"))
		if err != nil {
			return errors.Wrap(err, "unable to start filesystem watcher")
		}
		defer liveWatcher.Stop()
	}

	// Create the request server and serve in a separate Goroutine, watching
	// for serving failure.
	srv, err := server.New(config.FSAL.Socket, mgr, logger.Sublogger("server"))
	if err != nil {
		return errors.Wrap(err, "unable to create server")
	}
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve()
	}()
	logger.Infof("serving on %s", config.FSAL.Socket)

	// Wait for termination from a signal or the server.
	select {
	case sig := <-signalTermination:
		logger.Infof("terminated by signal: %s", sig)
		srv.Close()
		return nil
	case err = <-serverErrors:
		srv.Close()
		return errors.Wrap(err, "premature server termination")
	}
}

var daemonRunCommand = &cobra.Command{
	Use:   "run",
	Short: "Runs the daemon in the foreground",
	Run:   cmd.Mainify(daemonRunMain),
}

var daemonRunConfiguration struct {
	help bool
	// configurationPath is the configuration file path.
	configurationPath string
	// pidPath is the PID file path.
	pidPath string
	// lockPath is the lock file path.
	lockPath string
}

func init() {
	// Grab a handle for the command line flags.
	flags := daemonRunCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&daemonRunConfiguration.help, "help", "h", false, "Show help information")

	// Wire up run flags.
	flags.StringVar(&daemonRunConfiguration.configurationPath, "conf", defaultConfigurationPath, "Configuration file path")
	flags.StringVar(&daemonRunConfiguration.pidPath, "pid-file", defaultPIDPath, "PID file path")
	flags.StringVar(&daemonRunConfiguration.lockPath, "lock-file", defaultLockPath, "Lock file path")
}
