package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/topology/internal/model"
	"gopkg.in/yaml.v3"
)

// maxInputBytes caps remote input documents
const maxInputBytes = 64 << 20

// Loader reads chunk and claim sets from files or http(s) URLs
type Loader struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewLoader creates a Loader. timeout bounds remote reads.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxBytes: maxInputBytes,
	}
}

// LoadChunks reads and validates a chunk set. Chunk files are JSON.
func (l *Loader) LoadChunks(ctx context.Context, src string) (*model.ChunkSet, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	var set model.ChunkSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("load chunks: parse %s: %w", src, err)
	}

	if len(set.Chunks) == 0 {
		return nil, model.ShapeErrorf("load chunks", "%s has no chunks", src)
	}
	seen := make(map[int]bool, len(set.Chunks))
	for _, c := range set.Chunks {
		if seen[c.ID] {
			return nil, model.ShapeErrorf("load chunks", "duplicate chunk id %d in %s", c.ID, src)
		}
		seen[c.ID] = true
	}

	return &set, nil
}

// LoadClaims reads and validates a claim set. Files ending in .yaml or .yml
// are YAML, anything else JSON.
func (l *Loader) LoadClaims(ctx context.Context, src string) (*model.ClaimSet, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}

	var set model.ClaimSet
	if isYAML(src) {
		err = yaml.Unmarshal(data, &set)
	} else {
		err = json.Unmarshal(data, &set)
	}
	if err != nil {
		return nil, fmt.Errorf("load claims: parse %s: %w", src, err)
	}

	if len(set.Claims) == 0 {
		return nil, model.ShapeErrorf("load claims", "%s has no claims", src)
	}
	seen := make(map[string]bool, len(set.Claims))
	for _, c := range set.Claims {
		if c.ID == "" {
			return nil, model.ShapeErrorf("load claims", "claim without id in %s", src)
		}
		if seen[c.ID] {
			return nil, model.ShapeErrorf("load claims", "duplicate claim id %q in %s", c.ID, src)
		}
		seen[c.ID] = true
		if !model.ClaimType(c.Type).Known() {
			slog.Warn("unrecognised claim type", "claim", c.ID, "type", c.Type)
		}
	}

	return &set, nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	if !isRemote(src) {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	// One extra byte tells a document at the limit from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > l.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", l.maxBytes)
	}
	return body, nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func isYAML(src string) bool {
	ext := filepath.Ext(src)
	if isRemote(src) {
		// Ignore any query string
		ext = path.Ext(strings.SplitN(src, "?", 2)[0])
	}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
