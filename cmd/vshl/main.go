// Command vshl runs the voice service daemon and talks to a running one.
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/casualjim/vshl/internal/config"
	"github.com/casualjim/vshl/pkg/slogx"
	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	settings *config.Settings
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vshl",
		Short: "Voice service high level",
		Long: `vshl arbitrates between voice agents: it keeps the registry of agents,
routes their state events to subscribers, starts listening requests on the
default agent and relays capability messages between agents and apps.

Run the daemon:        vshl serve
List voice agents:     vshl agents
Start listening:       vshl listen`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./vshl.yaml or /etc/vshl/vshl.yaml)")

	root.AddCommand(
		serveCmd(),
		agentsCmd(),
		loadCmd(),
		listenCmd(),
		defaultCmd(),
		eventsCmd(),
		publishCmd(),
	)
	return root
}

func setup(*cobra.Command, []string) error {
	var err error
	settings, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	configureLogging(settings.Log.Level)
	return nil
}

func configureLogging(level string) {
	var lvl slog.Level
	lerr := lvl.UnmarshalText([]byte(level))

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: lvl}),
	))
	if lerr != nil {
		slog.Warn("unknown log level, using info", slogx.LoggerName("vshl"), slog.String("level", level), slogx.Error(lerr))
	}
}
