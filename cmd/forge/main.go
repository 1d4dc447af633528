// Command forge runs the wagering forge over a bbolt state store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfsorg/libforge-go/config"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

type ForgeService struct {
	EchoService *EchoService `do:""`
	APIService  *APIService  `do:""`
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist, then applies FORGE_* overrides.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg = config.DefaultConfig()
	} else if err != nil {
		return config.Config{}, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}
	return log, nil
}

func newInjector(cmd *cli.Command) (*do.RootScope, error) {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	i := do.New()

	do.ProvideValue(i, cfg)
	do.ProvideValue(i, log)

	do.Provide(i, NewDatabaseService)
	do.Provide(i, NewRuntimeService)
	do.Provide(i, NewEchoService)
	do.Provide(i, NewAPIService)

	return i, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	i, err := newInjector(cmd)
	if err != nil {
		return err
	}
	defer i.Shutdown()

	do.Provide(i, do.InvokeStruct[ForgeService])

	forgeService, err := do.Invoke[ForgeService](i)
	if err != nil {
		return fmt.Errorf("failed to create forge service: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- forgeService.EchoService.Start() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return forgeService.EchoService.Shutdown(context.Background())
	}
}

func runStats(_ context.Context, cmd *cli.Command) error {
	i, err := newInjector(cmd)
	if err != nil {
		return err
	}
	defer i.Shutdown()

	rs, err := do.Invoke[*RuntimeService](i)
	if err != nil {
		return err
	}
	s, err := rs.Client.Stats()
	if err != nil {
		return err
	}

	losses := s.Losses()
	w := cmd.Root().Writer
	fmt.Fprintf(w, "games:     %s\n", s.Games.Dec())
	fmt.Fprintf(w, "wins:      %s\n", s.Wins.Dec())
	fmt.Fprintf(w, "losses:    %s\n", losses.Dec())
	fmt.Fprintf(w, "tokens:    %s\n", s.Tokens.Dec())
	fmt.Fprintf(w, "positions: %s\n", s.Positions.Dec())
	fmt.Fprintf(w, "win rate:  %d%%\n", s.WinRatePercent())
	return nil
}

func runRegistry(_ context.Context, cmd *cli.Command) error {
	i, err := newInjector(cmd)
	if err != nil {
		return err
	}
	defer i.Shutdown()

	rs, err := do.Invoke[*RuntimeService](i)
	if err != nil {
		return err
	}
	ids, err := rs.Client.Registered()
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	for _, id := range ids {
		fmt.Fprintln(w, id.String())
	}
	fmt.Fprintf(w, "%d registered\n", len(ids))
	return nil
}

func runDeposit(_ context.Context, cmd *cli.Command) error {
	holder, err := host.AddressAccount(cmd.String("account"))
	if err != nil {
		return err
	}
	id, err := token.ParseID(cmd.String("token"))
	if err != nil {
		return err
	}
	amount, err := u128.Parse(cmd.String("amount"))
	if err != nil {
		return err
	}

	i, err := newInjector(cmd)
	if err != nil {
		return err
	}
	defer i.Shutdown()

	rs, err := do.Invoke[*RuntimeService](i)
	if err != nil {
		return err
	}
	if err := rs.Runtime.Deposit(holder, id, amount); err != nil {
		return err
	}
	bal, err := rs.Client.Balance(holder, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "%s holds %s of %s\n", holder, bal.Dec(), id)
	return nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Usage:   "path to the configuration file",
		Value:   config.ConfigPath(config.DefaultDataDir()),
		Sources: cli.EnvVars("FORGE_CONFIG"),
	}
}

func main() {
	//nolint:exhaustruct
	cmd := &cli.Command{
		Name:  "forge",
		Usage: "deterministic wagering forge",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve the HTTP query and invoke API",
				Flags:  []cli.Flag{configFlag()},
				Action: runServe,
			},
			{
				Name:   "stats",
				Usage:  "print the aggregate counters",
				Flags:  []cli.Flag{configFlag()},
				Action: runStats,
			},
			{
				Name:   "registry",
				Usage:  "print registered child tokens",
				Flags:  []cli.Flag{configFlag()},
				Action: runRegistry,
			},
			{
				Name:  "deposit",
				Usage: "credit tokens to the account of a P2PKH address",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "account", Usage: "P2PKH address of the holder", Required: true},
					&cli.StringFlag{Name: "token", Usage: "token id as block:tx", Required: true},
					&cli.StringFlag{Name: "amount", Usage: "amount to credit", Required: true},
				},
				Action: runDeposit,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
