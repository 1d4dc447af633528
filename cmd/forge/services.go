package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bitfsorg/libforge-go/config"
	"github.com/bitfsorg/libforge-go/coupon"
	"github.com/bitfsorg/libforge-go/forge"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
)

// DatabaseService owns the bbolt-backed state store.
type DatabaseService struct {
	Store *storage.BoltStore
}

func NewDatabaseService(i do.Injector) (*DatabaseService, error) {
	cfg := do.MustInvoke[config.Config](i)

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	store, err := storage.OpenBoltStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DatabaseService{Store: store}, nil
}

func (s *DatabaseService) Shutdown() error {
	//nolint:wrapcheck
	return s.Store.Close()
}

// RuntimeService hosts the forge contract and the coupon template.
type RuntimeService struct {
	Runtime *host.Runtime
	Client  *forge.Client
}

func NewRuntimeService(i do.Injector) (*RuntimeService, error) {
	cfg := do.MustInvoke[config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)
	db := do.MustInvoke[*DatabaseService](i)

	return newRuntimeService(db.Store, cfg, log)
}

func newRuntimeService(s storage.Store, cfg config.Config, log *logrus.Logger) (*RuntimeService, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	forgeID, templateID, _, err := cfg.IDs()
	if err != nil {
		return nil, err
	}

	rt, err := host.New(s, host.Options{Logger: log.WithField("component", "host")})
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}

	contract, err := forge.New(params, log.WithField("component", "forge"))
	if err != nil {
		return nil, fmt.Errorf("failed to create forge: %w", err)
	}
	if err := rt.Deploy(forgeID, contract); err != nil {
		return nil, fmt.Errorf("failed to deploy forge: %w", err)
	}
	if err := rt.RegisterTemplate(templateID, coupon.Template{}); err != nil {
		return nil, fmt.Errorf("failed to register coupon template: %w", err)
	}

	client := forge.NewClient(rt, forgeID, cfg.Fuel)
	ok, err := client.Initialized()
	if err != nil {
		return nil, fmt.Errorf("failed to read forge state: %w", err)
	}
	if !ok {
		genesis := host.NewTx(chainhash.Hash{}, chainhash.Hash{}, 0)
		if err := client.Initialize(genesis); err != nil && !errors.Is(err, forge.ErrAlreadyInitialized) {
			return nil, fmt.Errorf("failed to initialize forge: %w", err)
		}
		log.WithFields(logrus.Fields{
			"forge":     forgeID.String(),
			"template":  templateID.String(),
			"threshold": params.Threshold,
		}).Info("forge initialized")
	}

	return &RuntimeService{Runtime: rt, Client: client}, nil
}

// EchoService serves the HTTP API.
type EchoService struct {
	echo *echo.Echo
	addr string
}

func NewEchoService(i do.Injector) (*EchoService, error) {
	cfg := do.MustInvoke[config.Config](i)

	e := echo.New()

	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${id} ${remote_ip} ${status} ${method} ${path} ${error} ${latency_human} ${bytes_in} ${bytes_out}\n",
	}))
	e.Use(middleware.Recover())

	return &EchoService{
		echo: e,
		addr: cfg.ListenAddr,
	}, nil
}

func (s *EchoService) Register(c func(e *echo.Echo)) {
	c(s.echo)
}

func (s *EchoService) Start() error {
	err := s.echo.Start(s.addr)
	if err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *EchoService) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("failed to shutdown echo server: %w", err)
	}

	return nil
}

// APIService mounts the forge routes on the echo server.
type APIService struct {
	api *API
}

func NewAPIService(i do.Injector) (*APIService, error) {
	rs := do.MustInvoke[*RuntimeService](i)
	log := do.MustInvoke[*logrus.Logger](i)

	echoService, err := do.Invoke[*EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	api := NewAPI(rs.Client, log)
	echoService.Register(api.Routes)

	return &APIService{api: api}, nil
}
