package env

import (
	"os"
	"strings"
	"time"

	"snapsearch/internal/application/port/output"
)

const (
	DefaultTargetURL       = "https://www.amazon.com/stylesnap"
	DefaultMatchKeyword    = "stylesnapToken"
	DefaultUploadSelector  = "#file"
	DefaultResultsSelector = "#product_grid_container > div > section.tab-content"
)

type Settings struct {
	Host string
	Port int

	BrowserEndpoint string
	TargetURL       string
	MatchKeyword    string
	UploadSelector  string
	ResultsSelector string

	ConnectTimeout     time.Duration
	PageTimeout        time.Duration
	NavigationTimeout  time.Duration
	ElementTimeout     time.Duration
	ResultsTimeout     time.Duration
	TotalTimeout       time.Duration
	CloseTimeout       time.Duration
	DiagnosticsTimeout time.Duration
	ShutdownTimeout    time.Duration

	UploadMode     string
	BlockResources bool
	Incognito      bool
	CloseBrowser   bool
	BrowserTrace   bool

	DiagnosticsEnabled bool
	DiagnosticsDOM     bool
	DiagnosticsDir     string
	TempDir            string

	LogLevel  string
	LogFormat string
	LogDir    string

	MaxConcurrentSearches int
}

func LoadSettings(cfg output.ConfigPort) Settings {
	s := Settings{
		Host: cfg.GetWithDefault("HOST", "0.0.0.0"),
		Port: cfg.GetInt("PORT", 8000),

		BrowserEndpoint: cfg.Get("BROWSER_WS_ENDPOINT"),
		TargetURL:       cfg.GetWithDefault("TARGET_URL", DefaultTargetURL),
		MatchKeyword:    cfg.GetWithDefault("MATCH_KEYWORD", DefaultMatchKeyword),
		UploadSelector:  cfg.GetWithDefault("UPLOAD_SELECTOR", DefaultUploadSelector),
		ResultsSelector: cfg.GetWithDefault("RESULTS_SELECTOR", DefaultResultsSelector),

		ConnectTimeout:     cfg.GetDuration("CONNECT_TIMEOUT_MS", 30*time.Second),
		PageTimeout:        cfg.GetDuration("PAGE_TIMEOUT_MS", 15*time.Second),
		NavigationTimeout:  cfg.GetDuration("NAVIGATION_TIMEOUT_MS", 40*time.Second),
		ElementTimeout:     cfg.GetDuration("ELEMENT_TIMEOUT_MS", 30*time.Second),
		ResultsTimeout:     cfg.GetDuration("RESULTS_TIMEOUT_MS", 60*time.Second),
		TotalTimeout:       cfg.GetDuration("TOTAL_TIMEOUT_MS", 5*time.Minute),
		CloseTimeout:       cfg.GetDuration("CLOSE_TIMEOUT_MS", 10*time.Second),
		DiagnosticsTimeout: cfg.GetDuration("DIAGNOSTICS_TIMEOUT_MS", 5*time.Second),
		ShutdownTimeout:    cfg.GetDuration("SHUTDOWN_TIMEOUT_MS", 15*time.Second),

		UploadMode:     strings.ToLower(cfg.GetWithDefault("UPLOAD_MODE", "bytes")),
		BlockResources: cfg.GetBool("BLOCK_RESOURCES", true),
		Incognito:      cfg.GetBool("INCOGNITO", true),
		CloseBrowser:   cfg.GetBool("CLOSE_BROWSER", false),
		BrowserTrace:   cfg.GetBool("BROWSER_TRACE", false),

		DiagnosticsEnabled: cfg.GetBool("DIAGNOSTICS_ENABLED", true),
		DiagnosticsDOM:     cfg.GetBool("DIAGNOSTICS_DOM", false),
		DiagnosticsDir:     cfg.GetWithDefault("DIAGNOSTICS_DIR", "./temp/screenshot"),
		TempDir:            cfg.GetWithDefault("TEMP_DIR", os.TempDir()),

		LogLevel:  cfg.GetWithDefault("LOG_LEVEL", "debug"),
		LogFormat: cfg.GetWithDefault("LOG_FORMAT", "console"),
		LogDir:    cfg.GetWithDefault("LOG_DIR", "./logs"),

		MaxConcurrentSearches: cfg.GetInt("MAX_CONCURRENT_SEARCHES", 2),
	}

	if s.UploadMode != "bytes" && s.UploadMode != "tempfile" {
		s.UploadMode = "bytes"
	}
	if s.MaxConcurrentSearches < 1 {
		s.MaxConcurrentSearches = 1
	}
	return s
}
