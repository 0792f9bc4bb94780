package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docstruct/internal/chunker"
	"github.com/dgallion1/docstruct/internal/patterns"
)

type Config struct {
	Port string

	// Auth
	DocstructAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Request limits
	MaxUploadBytes int64
	MaxTextBytes   int64

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int
	DefaultMinChunk     int
	RespectSections     bool
	AdaptiveSizing      bool
	MergeUndersized     bool

	// Section vocabularies; nil means all registered sets.
	Vocabularies      []string
	ExtraPatternsFile string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocstructAPIKey: os.Getenv("DOCSTRUCT_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxTextBytes:   envInt64("MAX_TEXT_BYTES", 10485760),   // 10MB

		DefaultChunkSize:    envInt("DEFAULT_CHUNK_SIZE", 1000),
		DefaultChunkOverlap: envInt("DEFAULT_CHUNK_OVERLAP", 200),
		DefaultMinChunk:     envInt("DEFAULT_MIN_CHUNK", 100),
		RespectSections:     envBool("RESPECT_SECTIONS", true),
		AdaptiveSizing:      envBool("ADAPTIVE_SIZING", true),
		MergeUndersized:     envBool("MERGE_UNDERSIZED", false),

		Vocabularies:      envList("VOCABULARIES"),
		ExtraPatternsFile: os.Getenv("EXTRA_PATTERNS_FILE"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = 10485760
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 1000
	}
	if cfg.DefaultChunkOverlap < 0 {
		cfg.DefaultChunkOverlap = 200
	}
	if cfg.DefaultMinChunk < 0 {
		cfg.DefaultMinChunk = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocstructAPIKey == "" {
		return fmt.Errorf("DOCSTRUCT_API_KEY is required")
	}
	for _, v := range c.Vocabularies {
		if _, ok := patterns.Vocabulary(v); !ok {
			return fmt.Errorf("VOCABULARIES: unknown vocabulary %q (known: %s)", v, strings.Join(patterns.VocabularyNames(), ", "))
		}
	}
	if c.ExtraPatternsFile != "" {
		if _, err := os.Stat(c.ExtraPatternsFile); err != nil {
			return fmt.Errorf("EXTRA_PATTERNS_FILE: %w", err)
		}
	}
	return nil
}

// ChunkConfig returns the chunker settings used when a request does not
// override them.
func (c Config) ChunkConfig() chunker.Config {
	return chunker.Config{
		MaxChunkSize:    c.DefaultChunkSize,
		OverlapSize:     c.DefaultChunkOverlap,
		MinChunkSize:    c.DefaultMinChunk,
		RespectSections: c.RespectSections,
		AdaptiveSizing:  c.AdaptiveSizing,
		MergeUndersized: c.MergeUndersized,
	}
}

// ExtraPatterns loads the configured extra section patterns, if any.
func (c Config) ExtraPatterns() ([]patterns.SectionPattern, error) {
	if c.ExtraPatternsFile == "" {
		return nil, nil
	}
	return patterns.LoadSectionPatternsFile(c.ExtraPatternsFile)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable. Unset yields nil and "none"
// yields an empty, non-nil list.
func envList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	out := []string{}
	if strings.EqualFold(v, "none") {
		return out
	}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
