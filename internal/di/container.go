package di

import (
	"fmt"

	"snapsearch/internal/application/port/input"
	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
	"snapsearch/internal/infrastructure/artifacts"
	"snapsearch/internal/infrastructure/browser/rod"
	"snapsearch/internal/infrastructure/env"
	"snapsearch/internal/infrastructure/httpapi"
	"snapsearch/internal/infrastructure/logger"
	"snapsearch/internal/infrastructure/metrics"
	"snapsearch/internal/usecase/diagnostics"
	"snapsearch/internal/usecase/matcher"
	"snapsearch/internal/usecase/orchestrator"
	"snapsearch/internal/usecase/race"
	"snapsearch/internal/usecase/upload"
)

type Container struct {
	Settings env.Settings
	Logger   output.LoggerPort
	Browser  output.RemoteBrowser
	Store    output.ArtifactStore
	Metrics  *metrics.Recorder
	Searcher input.ImageSearcher
	Server   *httpapi.Server
}

// Config lets callers replace the logger built from settings.
type Config struct {
	Settings env.Settings
	Logger   output.LoggerPort
}

func NewContainer(cfg Config) (*Container, error) {
	s := cfg.Settings

	log := cfg.Logger
	if log == nil {
		logCfg := logger.DefaultConfig()
		logCfg.Level = s.LogLevel
		logCfg.Format = s.LogFormat
		logCfg.Dir = s.LogDir
		adapter, err := logger.NewLoggerAdapter(logCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		log = adapter
	}

	store, err := artifacts.NewDiskStore(s.DiagnosticsDir, s.TempDir)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.BlockResources = s.BlockResources
	browserCfg.Incognito = s.Incognito
	browserCfg.CloseBrowser = s.CloseBrowser
	browserCfg.Trace = s.BrowserTrace
	browser := rod.NewRemoteBrowser(browserCfg, log)

	recorder := metrics.NewRecorder()

	trigger := upload.New(upload.Config{
		Selector:       s.UploadSelector,
		ControlTimeout: s.ElementTimeout,
		Mode:           upload.Mode(s.UploadMode),
	}, store, log)

	racer := race.New(race.Config{
		ResultsSelector: s.ResultsSelector,
		UITimeout:       s.ResultsTimeout,
	}, log)

	uc := orchestrator.New(orchestrator.Config{
		Endpoint:          s.BrowserEndpoint,
		Criterion:         entity.MatchCriterion{URLContains: s.MatchKeyword},
		ConnectTimeout:    s.ConnectTimeout,
		PageTimeout:       s.PageTimeout,
		NavigationTimeout: s.NavigationTimeout,
		CloseTimeout:      s.CloseTimeout,
		Diagnostics: diagnostics.Config{
			Enabled: s.DiagnosticsEnabled,
			DOM:     s.DiagnosticsDOM,
			Timeout: s.DiagnosticsTimeout,
		},
	}, browser, matcher.New(log), trigger, racer, store, recorder, log)

	// A canceled search still writes its failure snapshot and closes its
	// session before the server lets go.
	drain := 2*s.DiagnosticsTimeout + s.CloseTimeout
	server := httpapi.NewServer(httpapi.Config{
		Host:             s.Host,
		Port:             s.Port,
		DefaultTargetURL: s.TargetURL,
		Deadline:         s.TotalTimeout,
		MaxConcurrent:    s.MaxConcurrentSearches,
		ShutdownTimeout:  s.ShutdownTimeout,
		DrainTimeout:     drain,
		JSONAccessLog:    s.LogFormat == "json",
	}, uc, recorder.Handler(), log)

	return &Container{
		Settings: s,
		Logger:   log,
		Browser:  browser,
		Store:    store,
		Metrics:  recorder,
		Searcher: uc,
		Server:   server,
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}
