// Command bgserver runs the bgturn session server.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yourusername/bgturn/pkg/api"
	"github.com/yourusername/bgturn/pkg/external"
)

const version = "0.1.0"

type options struct {
	config      api.ServerConfig
	debug       bool
	showVersion bool
}

func main() {
	// Environment first, flags override it.
	config, err := api.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts, err := parseFlags(flag.CommandLine, os.Args[1:], config)
	if err != nil {
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("bgturn server v%s\n", version)
		os.Exit(0)
	}

	var log *zap.Logger
	if opts.debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		os.Exit(1)
	}

	err = run(opts.config, log)
	if err != nil {
		log.Error("server error", zap.Error(err))
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// parseFlags overrides config with any flags present in args.
func parseFlags(fs *flag.FlagSet, args []string, config api.ServerConfig) (options, error) {
	opts := options{config: config}
	c := &opts.config

	fs.StringVar(&c.Host, "host", c.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	fs.IntVar(&c.Port, "port", c.Port, "Port to listen on")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "HTTP read timeout")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "HTTP write timeout")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "HTTP keep-alive idle timeout")
	fs.IntVar(&c.MaxSessions, "max-sessions", c.MaxSessions, "Maximum concurrent sessions")
	fs.IntVar(&c.MaxRequests, "max-requests", c.MaxRequests, "Maximum concurrent session requests")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Idle time before a session is closed")
	fs.DurationVar(&c.StartupDelay, "startup-delay", c.StartupDelay, "Delay before the first turn of a session")
	fs.BoolVar(&c.AutoRoll, "auto-roll", c.AutoRoll, "Roll the dice as soon as a turn starts")
	fs.BoolVar(&c.AnimateDice, "animate-dice", c.AnimateDice, "Use the animated dice timing")
	fs.BoolVar(&c.EndTurnWhenBlocked, "end-turn-when-blocked", c.EndTurnWhenBlocked, "End a move phase with no legal move")
	fs.StringVar(&c.TCPAddr, "tcp", c.TCPAddr, "Address for the text protocol (empty to disable)")
	fs.BoolVar(&opts.debug, "debug", false, "Development logging")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// run serves until shutdown. Deferred cleanup runs before main exits.
func run(config api.ServerConfig, log *zap.Logger) error {
	server := api.NewServer(config, version, log)

	if config.TCPAddr != "" {
		opts := external.DefaultServerOptions()
		opts.Addr = config.TCPAddr
		ext := external.NewServer(server.Hub(), opts, log)
		if err := ext.Start(); err != nil {
			return fmt.Errorf("text protocol: %w", err)
		}
		defer ext.Stop()
	}

	return server.ListenAndServeWithGracefulShutdown()
}
