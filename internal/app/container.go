package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/doeshing/medetech-go/internal/application/account"
	"github.com/doeshing/medetech-go/internal/application/doctor"
	"github.com/doeshing/medetech-go/internal/application/history"
	"github.com/doeshing/medetech-go/internal/application/identify"
	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/infrastructure/ai"
	"github.com/doeshing/medetech-go/internal/infrastructure/config"
	"github.com/doeshing/medetech-go/internal/infrastructure/network"
	"github.com/doeshing/medetech-go/internal/infrastructure/storage"
	"github.com/doeshing/medetech-go/internal/pkg/filesystem"
	"github.com/doeshing/medetech-go/internal/pkg/logger"
	"github.com/doeshing/medetech-go/internal/ports"
)

// Options control container construction.
type Options struct {
	ConfigPath string
	Verbose    bool
	LogOutput  io.Writer
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config          domain.Config
	ConfigLoader    *config.FileLoader
	Logger          ports.Logger
	IdentifyService *identify.Service
	HistoryStore    ports.HistoryRepository
	AccountService  *account.Service
	DoctorService   *doctor.Service
	MockMode        bool

	stores *storage.Stores
}

// BuildContainer constructs the dependency graph. Mock mode is decided here,
// once, from credential presence.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	log := logger.New(cfg.Log.Level, out)
	if opts.Verbose {
		log.SetLevel("debug")
	}

	stores, err := storage.Open(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	secure, err := openSecureStore(cfg.Storage, stores)
	if err != nil {
		stores.Close()
		return nil, err
	}

	var connectivity ports.ConnectivityChecker = network.NewProbe(cfg.Network, log)
	if cfg.Network.AssumeOnline {
		connectivity = network.Static(true)
	}

	apiKey := config.ResolveAPIKey(cfg.Model)
	mockMode := apiKey == ""
	var generator ports.Generator
	if !mockMode {
		generator, err = ai.NewFactory(nil).ForModel(cfg.Model, apiKey)
		if err != nil {
			stores.Close()
			return nil, err
		}
	} else {
		log.Warn("no model credential found, identification runs in mock mode", map[string]interface{}{
			"auth_env_var": cfg.Model.AuthEnvVar,
		})
	}

	prompts, err := loadPrompts(cfg.Identification)
	if err != nil {
		stores.Close()
		return nil, err
	}

	historyStore := history.NewStore(stores.General, log)

	identifyService := &identify.Service{
		Connectivity: connectivity,
		Generator:    generator,
		History:      historyStore,
		Logger:       log,
		Prompts:      &prompts,
		Options: identify.Options{
			MockMode:       mockMode,
			Model:          cfg.Model.GetName(),
			Grounding:      cfg.Model.Grounding,
			MockImageDelay: cfg.Identification.MockImageDelay(),
			MockTextDelay:  cfg.Identification.MockTextDelay(),
		},
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Connectivity:   connectivity,
		Store:          stores.General,
		Secure:         secure,
		History:        historyStore,
		MockMode:       mockMode,
		StorageInfo:    fmt.Sprintf("%s at %s", stores.Backend, stores.Location),
	}

	return &Container{
		Config:          cfg,
		ConfigLoader:    cfgLoader,
		Logger:          log,
		IdentifyService: identifyService,
		HistoryStore:    historyStore,
		AccountService:  account.NewService(stores.General, secure, log),
		DoctorService:   doctorService,
		MockMode:        mockMode,
		stores:          stores,
	}, nil
}

// Close releases storage handles.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return c.stores.Close()
}

func openSecureStore(settings domain.StorageSettings, stores *storage.Stores) (*storage.SecureStore, error) {
	keyFile := filesystem.ExpandPath(settings.SecureKeyFile)
	if keyFile == "" {
		keyFile = filepath.Join(filesystem.AppDir(), "master.key")
	}
	secret, err := storage.LoadOrCreateSecret(settings.SecureKeyEnv, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	secure, err := storage.NewSecureStore(stores.Sensitive, secret)
	if err != nil {
		return nil, fmt.Errorf("open secure store: %w", err)
	}
	return secure, nil
}

func loadPrompts(settings domain.IdentificationSettings) (identify.Prompts, error) {
	catalog := identify.DefaultCatalog()
	if settings.CatalogFile != "" {
		data, err := os.ReadFile(filesystem.ExpandPath(settings.CatalogFile))
		if err != nil {
			return identify.Prompts{}, fmt.Errorf("read medicine catalog: %w", err)
		}
		catalog, err = identify.LoadCatalog(data)
		if err != nil {
			return identify.Prompts{}, err
		}
	}
	prompts, err := identify.RenderPrompts(catalog)
	if err != nil {
		return identify.Prompts{}, fmt.Errorf("render prompts: %w", err)
	}
	return prompts, nil
}
