package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind        string
	port        int
	prefix      string
	profile     bool
	debugAPI    bool
	tlsCert     string
	tlsKey      string
	verbose     bool
	version     bool
	minPlayers  int
	maxPlayers  int
	maxRooms    int
	maxRounds   int
	points      int
	roundTime   time.Duration
	roomTimeout time.Duration
	messageRate float64
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.minPlayers < 2 {
		return fmt.Errorf("invalid minimum player count (must be at least 2): %d", c.minPlayers)
	}
	if c.maxPlayers < c.minPlayers {
		return fmt.Errorf("invalid maximum player count (must be at least %d): %d", c.minPlayers, c.maxPlayers)
	}
	if c.maxRooms < 1 {
		return fmt.Errorf("invalid maximum room count: %d", c.maxRooms)
	}
	if c.maxRounds < 1 {
		return fmt.Errorf("invalid maximum round count: %d", c.maxRounds)
	}
	if c.roundTime < 10*time.Second || c.roundTime > 5*time.Minute {
		return fmt.Errorf("invalid round time (must be between 10s and 5m): %s", c.roundTime)
	}
	if c.points < 1 {
		return fmt.Errorf("invalid points per answer: %d", c.points)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GEOGRAFIJA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "geografija",
		Short:         "A real-time multiplayer server for the categories-by-letter party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GEOGRAFIJA_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: GEOGRAFIJA_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: GEOGRAFIJA_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: GEOGRAFIJA_PROFILE)")
	fs.BoolVar(&cfg.debugAPI, "debug-api", false, "expose per-room debug info at /api/rooms/:code (env: GEOGRAFIJA_DEBUG_API)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: GEOGRAFIJA_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: GEOGRAFIJA_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: GEOGRAFIJA_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GEOGRAFIJA_VERSION)")
	fs.IntVar(&cfg.minPlayers, "min-players", 2, "players required before a game can start (env: GEOGRAFIJA_MIN_PLAYERS)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 8, "maximum players per room (env: GEOGRAFIJA_MAX_PLAYERS)")
	fs.IntVar(&cfg.maxRooms, "max-rooms", 512, "maximum concurrent rooms (env: GEOGRAFIJA_MAX_ROOMS)")
	fs.IntVar(&cfg.maxRounds, "max-rounds", 10, "rounds after which a game ends (env: GEOGRAFIJA_MAX_ROUNDS)")
	fs.IntVar(&cfg.points, "points", 10, "points awarded per valid answer (env: GEOGRAFIJA_POINTS)")
	fs.DurationVar(&cfg.roundTime, "round-time", 60*time.Second, "time players have to fill in answers each round (env: GEOGRAFIJA_ROUND_TIME)")
	fs.DurationVar(&cfg.roomTimeout, "room-timeout", 5*time.Minute, "time before inactive rooms are removed (env: GEOGRAFIJA_ROOM_TIMEOUT)")
	fs.Float64Var(&cfg.messageRate, "message-rate", 20, "per-connection inbound messages allowed per second (env: GEOGRAFIJA_MESSAGE_RATE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("geografija v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
