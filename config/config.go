// Package config loads gias settings from a TOML file, a .env file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fwojciec/gias"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Supported providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"

	LoaderGit = "git"
	LoaderAPI = "api"

	DefaultAnalysisModel = "arcee-ai/trinity-large-preview:free"
	DefaultPatchModel    = "kwaipilot/kat-coder-pro:free"
	DefaultRunLog        = "./gias-runs.jsonl"
)

// Config holds every setting of the gias binary.
type Config struct {
	Repository string          `toml:"repository"`
	RunLog     string          `toml:"run_log"`
	Server     ServerConfig    `toml:"server"`
	Patches    PatchesConfig   `toml:"patches"`
	LLM        LLMConfig       `toml:"llm"`
	Embedding  EmbeddingConfig `toml:"embedding"`
	Index      IndexConfig     `toml:"index"`
	GitHub     GitHubConfig    `toml:"github"`
	Log        LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type PatchesConfig struct {
	Dir                 string `toml:"dir"`
	Author              string `toml:"author"`
	ContextLines        int    `toml:"context_lines"`
	ApplyTimeoutSeconds int    `toml:"apply_timeout_seconds"`
	AutoPatch           bool   `toml:"auto_patch"`
}

type LLMConfig struct {
	Provider         string  `toml:"provider"`
	AnalysisModel    string  `toml:"analysis_model"`
	PatchModel       string  `toml:"patch_model"`
	APIKey           string  `toml:"api_key"`
	BaseURL          string  `toml:"base_url"`
	Temperature      float64 `toml:"temperature"`
	MaxTokens        int     `toml:"max_tokens"`
	MaxContextTokens int     `toml:"max_context_tokens"`
	AnalysisK        int     `toml:"analysis_k"`
	PatchK           int     `toml:"patch_k"`
	// CacheDir enables the on-disk completion cache when set.
	CacheDir string `toml:"cache_dir"`
}

type EmbeddingConfig struct {
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	BatchSize int    `toml:"batch_size"`
	Workers   int    `toml:"workers"`
}

type IndexConfig struct {
	Path         string `toml:"path"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

type GitHubConfig struct {
	Token    string `toml:"token"`
	Loader   string `toml:"loader"`
	CloneDir string `toml:"clone_dir"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Repository: "psf/requests",
		RunLog:     DefaultRunLog,
		Server:     ServerConfig{Addr: ":8000"},
		Patches: PatchesConfig{
			Dir:                 "./patches",
			Author:              gias.AgentAuthor,
			ContextLines:        gias.DefaultContextLines,
			ApplyTimeoutSeconds: 30,
			AutoPatch:           true,
		},
		LLM: LLMConfig{
			Provider:         ProviderOpenRouter,
			AnalysisModel:    DefaultAnalysisModel,
			PatchModel:       DefaultPatchModel,
			Temperature:      0.1,
			MaxTokens:        4096,
			MaxContextTokens: 6000,
			AnalysisK:        5,
			PatchK:           10,
		},
		Embedding: EmbeddingConfig{
			Model:     "embeddinggemma",
			BaseURL:   "http://localhost:11434",
			BatchSize: 32,
			Workers:   4,
		},
		Index: IndexConfig{
			Path:         "./gias.db",
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
		GitHub: GitHubConfig{Loader: LoaderGit},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads an optional .env file from the working directory, then
// delegates to LoadWith using the process environment.
func Load(path string) (Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load()
	return LoadWith(path, os.LookupEnv)
}

// LoadWith starts from Default, applies the TOML file at path when path is
// non-empty, then applies environment overrides read through lookup.
func LoadWith(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ProviderKeyEnv names the environment variable holding the provider's API key.
func ProviderKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return "OPEN_ROUTER_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
		return nil
	}

	str("GIAS_REPOSITORY", &cfg.Repository)
	str("GIAS_RUN_LOG", &cfg.RunLog)
	str("GIAS_ADDR", &cfg.Server.Addr)
	str("PATCHES_DIR", &cfg.Patches.Dir)
	str("GIAS_PATCH_AUTHOR", &cfg.Patches.Author)
	str("GIAS_LLM_PROVIDER", &cfg.LLM.Provider)
	str("GIAS_ANALYSIS_MODEL", &cfg.LLM.AnalysisModel)
	str("GIAS_PATCH_MODEL", &cfg.LLM.PatchModel)
	str("GIAS_LLM_BASE_URL", &cfg.LLM.BaseURL)
	str("GIAS_LLM_CACHE_DIR", &cfg.LLM.CacheDir)
	if env := ProviderKeyEnv(cfg.LLM.Provider); env != "" {
		str(env, &cfg.LLM.APIKey)
	}
	str("GIAS_LLM_API_KEY", &cfg.LLM.APIKey)
	str("OLLAMA_HOST", &cfg.Embedding.BaseURL)
	str("GIAS_EMBEDDING_MODEL", &cfg.Embedding.Model)
	str("GIAS_INDEX_PATH", &cfg.Index.Path)
	str("GITHUB_TOKEN", &cfg.GitHub.Token)
	str("GIAS_LOADER", &cfg.GitHub.Loader)
	str("GIAS_LOG_LEVEL", &cfg.Log.Level)

	if err := num("GIAS_CONTEXT_LINES", &cfg.Patches.ContextLines); err != nil {
		return err
	}
	if err := num("GIAS_APPLY_TIMEOUT_SECONDS", &cfg.Patches.ApplyTimeoutSeconds); err != nil {
		return err
	}
	return num("GIAS_MAX_CONTEXT_TOKENS", &cfg.LLM.MaxContextTokens)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderGemini, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.GitHub.Loader {
	case LoaderGit, LoaderAPI:
	default:
		return fmt.Errorf("unknown repository loader %q", c.GitHub.Loader)
	}
	if c.Patches.Dir == "" {
		return fmt.Errorf("patches dir is required")
	}
	if c.Patches.ContextLines < 0 {
		return fmt.Errorf("context lines must not be negative")
	}
	if c.Patches.ApplyTimeoutSeconds <= 0 {
		return fmt.Errorf("apply timeout must be positive")
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("chunk overlap must be smaller than chunk size")
	}
	if c.Repository != "" {
		if _, err := gias.ParseRepository(c.Repository); err != nil {
			return err
		}
	}
	return nil
}

// Models returns the analysis and patch models. The OpenRouter defaults only
// make sense for OpenRouter, so other providers get fallback instead when
// neither model was configured explicitly.
func (c LLMConfig) Models(fallback string) (analysisModel, patchModel string) {
	analysisModel, patchModel = c.AnalysisModel, c.PatchModel
	if c.Provider == ProviderOpenRouter {
		return analysisModel, patchModel
	}
	if analysisModel == "" || analysisModel == DefaultAnalysisModel {
		analysisModel = fallback
	}
	if patchModel == "" || patchModel == DefaultPatchModel {
		patchModel = fallback
	}
	return analysisModel, patchModel
}

// ApplyTimeout returns the git apply timeout.
func (c Config) ApplyTimeout() time.Duration {
	return time.Duration(c.Patches.ApplyTimeoutSeconds) * time.Second
}

// DefaultRepository returns the configured repository.
func (c Config) DefaultRepository() (gias.Repository, error) {
	return gias.ParseRepository(c.Repository)
}
