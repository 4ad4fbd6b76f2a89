package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	EmbeddingURL   string
	EmbeddingToken string

	// VerifyFace gates the whole similarity check; with it off a tap is
	// recorded on the card alone.
	VerifyFace bool

	// SimilarityThreshold is the single source of truth for the match
	// rule, scores >= threshold pass.
	SimilarityThreshold float64

	// Freshness window for the NATS-fed latest-tap slot.
	Freshness time.Duration
}

const (
	defaultThreshold = 0.90
	defaultFreshness = 2 * time.Second
)

func Load() Config {
	cfg := Config{
		EmbeddingURL:        os.Getenv("EMBEDDING_URL"),
		EmbeddingToken:      os.Getenv("EMBEDDING_TOKEN"),
		SimilarityThreshold: defaultThreshold,
		Freshness:           defaultFreshness,
	}

	if v := os.Getenv("VERIFY_FACE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.VerifyFace = b
		}
	}
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("UID_FRESHNESS_SECONDS"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Freshness = time.Duration(s) * time.Second
		}
	}

	return cfg
}
