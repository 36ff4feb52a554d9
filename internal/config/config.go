// Package config centralizes every tunable the engine exposes into a single
// value, loaded from environment variables (with an optional YAML overlay),
// instead of scattering env lookups through the codebase.
package config

import (
	"os"
	"time"

	"github.com/jasonaskew/docugraph/internal/util"
	"gopkg.in/yaml.v3"
)

// RerankWeights are the fusion weights applied in the final reranking step.
type RerankWeights struct {
	CrossEncoder float64 `yaml:"cross_encoder"`
	Retriever    float64 `yaml:"retriever"`
	Keyword      float64 `yaml:"keyword"`
	QueryType    float64 `yaml:"query_type"`
}

// IngestPhaseTimeouts bounds each phase of the per-document ingestion DAG.
type IngestPhaseTimeouts struct {
	Extract  time.Duration `yaml:"extract"`
	Embed    time.Duration `yaml:"embed"`
	Entities time.Duration `yaml:"entities"`
	Write    time.Duration `yaml:"write"`
}

// Validation holds the thresholds the ingestion validator checks.
type Validation struct {
	MinChunkPageRatio float64 `yaml:"min_chunk_page_ratio"`
	MinCharsPerPage   float64 `yaml:"min_chars_per_page"`
}

// Config is the single value threaded through every component, as a
// typed struct rather than an ad hoc configuration dictionary.
type Config struct {
	Workers                int                 `yaml:"workers"`
	ChunkTargetTokens      int                 `yaml:"chunk_target_tokens"`
	ChunkOverlapTokens     int                 `yaml:"chunk_overlap_tokens"`
	ChunkMaxTokens         int                 `yaml:"chunk_max_tokens"`
	EmbeddingDim           int                 `yaml:"embedding_dim"`
	CooccurrenceMinStrength int                `yaml:"cooccurrence_min_strength"`
	LouvainResolution      float64             `yaml:"louvain_resolution"`
	RerankWeights          RerankWeights       `yaml:"rerank_weights"`
	QueryDeadline          time.Duration       `yaml:"query_deadline"`
	IngestPhaseTimeouts    IngestPhaseTimeouts `yaml:"ingest_phase_timeouts"`
	Validation             Validation          `yaml:"validation"`

	TokenEncoder          string `yaml:"token_encoder"`
	CommunityDwell        time.Duration `yaml:"community_dwell"`
	MaxRetries            int    `yaml:"max_retries"`
	DatabaseURL            string `yaml:"-"`
	Neo4jURL               string `yaml:"-"`
	Neo4jUser              string `yaml:"-"`
	Neo4jPassword          string `yaml:"-"`
	AMQPURL                string `yaml:"-"`
	Debug                  bool   `yaml:"-"`
}

// Default returns the configuration with every field set to its
// production default.
func Default() Config {
	return Config{
		Workers:                 util.Min(8, util.Max(1, 8)),
		ChunkTargetTokens:       512,
		ChunkOverlapTokens:      128,
		ChunkMaxTokens:          1024,
		EmbeddingDim:            384,
		CooccurrenceMinStrength: 2,
		LouvainResolution:       1.0,
		RerankWeights: RerankWeights{
			CrossEncoder: 0.5,
			Retriever:    0.3,
			Keyword:      0.1,
			QueryType:    0.1,
		},
		QueryDeadline: 10 * time.Second,
		IngestPhaseTimeouts: IngestPhaseTimeouts{
			Extract:  600 * time.Second,
			Embed:    300 * time.Second,
			Entities: 120 * time.Second,
			Write:    60 * time.Second,
		},
		Validation: Validation{
			MinChunkPageRatio: 0.2,
			MinCharsPerPage:   50,
		},
		TokenEncoder:   "o200k_base",
		CommunityDwell: 60 * time.Second,
		MaxRetries:     3,
	}
}

// Load builds a Config from defaults, an optional YAML file (path taken from
// DOCUGRAPH_CONFIG_FILE), and finally environment variable overrides, in
// that order of increasing precedence.
func Load() Config {
	cfg := Default()

	if path := util.GetEnvString("DOCUGRAPH_CONFIG_FILE", ""); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(data, &cfg)
		}
	}

	cfg.Workers = util.GetEnvInt("DOCUGRAPH_WORKERS", cfg.Workers)
	cfg.ChunkTargetTokens = util.GetEnvInt("DOCUGRAPH_CHUNK_TARGET_TOKENS", cfg.ChunkTargetTokens)
	cfg.ChunkOverlapTokens = util.GetEnvInt("DOCUGRAPH_CHUNK_OVERLAP_TOKENS", cfg.ChunkOverlapTokens)
	cfg.ChunkMaxTokens = util.GetEnvInt("DOCUGRAPH_CHUNK_MAX_TOKENS", cfg.ChunkMaxTokens)
	cfg.EmbeddingDim = util.GetEnvInt("DOCUGRAPH_EMBEDDING_DIM", cfg.EmbeddingDim)
	cfg.CooccurrenceMinStrength = util.GetEnvInt("DOCUGRAPH_COOCCURRENCE_MIN_STRENGTH", cfg.CooccurrenceMinStrength)
	cfg.LouvainResolution = util.GetEnvFloat("DOCUGRAPH_LOUVAIN_RESOLUTION", cfg.LouvainResolution)
	cfg.MaxRetries = util.GetEnvInt("DOCUGRAPH_MAX_RETRIES", cfg.MaxRetries)
	cfg.TokenEncoder = util.GetEnvString("DOCUGRAPH_TOKEN_ENCODER", cfg.TokenEncoder)

	if ms := util.GetEnvInt("DOCUGRAPH_QUERY_DEADLINE_MS", int(cfg.QueryDeadline.Milliseconds())); ms >= 0 {
		cfg.QueryDeadline = time.Duration(ms) * time.Millisecond
	}

	cfg.DatabaseURL = util.GetEnv("DATABASE_URL")
	cfg.Neo4jURL = util.GetEnv("NEO4J_URL")
	cfg.Neo4jUser = util.GetEnv("NEO4J_USER")
	cfg.Neo4jPassword = util.GetEnv("NEO4J_PASSWORD")
	cfg.AMQPURL = util.GetEnv("AMQP_URL")
	cfg.Debug = util.GetEnvBool("DEBUG", false)

	return cfg
}
