package qdrant

import (
	"errors"
	"testing"
	"time"
)

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		wantCode ConfigErrorCode
	}{
		{
			name: "valid",
			cfg:  Config{URL: "http://qdrant:6333", Collection: "rfpflow", VectorDim: 1536, Timeout: time.Second},
		},
		{
			name:     "missing url",
			cfg:      Config{Collection: "rfpflow", VectorDim: 1536},
			wantCode: ConfigErrorMissingURL,
		},
		{
			name:     "relative url",
			cfg:      Config{URL: "qdrant:6333", Collection: "rfpflow", VectorDim: 1536},
			wantCode: ConfigErrorInvalidURL,
		},
		{
			name:     "missing collection",
			cfg:      Config{URL: "http://qdrant:6333", Collection: "  ", VectorDim: 1536},
			wantCode: ConfigErrorMissingCollection,
		},
		{
			name:     "zero dim",
			cfg:      Config{URL: "http://qdrant:6333", Collection: "rfpflow", VectorDim: 0},
			wantCode: ConfigErrorInvalidVectorDim,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfig(tc.cfg)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateConfig: %v", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got=%T", err)
			}
			if ce.Code != tc.wantCode {
				t.Fatalf("code: want=%q got=%q", tc.wantCode, ce.Code)
			}
		})
	}
}

func TestResolveConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "")
	t.Setenv("QDRANT_VECTOR_DIM", "")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Collection != "rfpflow" {
		t.Fatalf("collection default: got=%q", cfg.Collection)
	}
	if cfg.VectorDim != 1536 {
		t.Fatalf("vector dim default: got=%d", cfg.VectorDim)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("timeout default: got=%v", cfg.Timeout)
	}
}
