package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from dilasearch.kdl in dir.
// A missing file is not an error: it signals the caller to fall back
// to Default().
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, "dilasearch.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dilasearch.kdl: %w", err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	if cfg.Project.Root == "" {
		absRoot, err := filepath.Abs(dir)
		if err == nil {
			cfg.Project.Root = absRoot
		} else {
			cfg.Project.Root = dir
		}
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(dir, cfg.Project.Root))
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
			}
		case "fetch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_concurrent_downloads":
					if v, ok := firstIntArg(cn); ok {
						cfg.Fetch.MaxConcurrentDownloads = v
					}
				case "max_concurrent_extractions":
					if v, ok := firstIntArg(cn); ok {
						cfg.Fetch.MaxConcurrentExtractions = v
					}
				case "request_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Fetch.RequestTimeoutSec = v
					}
				case "base_url":
					if s, ok := firstStringArg(cn); ok {
						cfg.Fetch.BaseURL = s
					}
				}
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "writer_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.WriterMemoryMB = v
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Index.WriterMemoryMB = int(sz / (1024 * 1024))
						}
					}
				}
			}
		case "oneshot":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "writer_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.OneShot.WriterMemoryMB = v
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.OneShot.WriterMemoryMB = int(sz / (1024 * 1024))
						}
					}
				case "chunk_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.OneShot.ChunkSize = v
					}
				case "max_concurrent_listings":
					if v, ok := firstIntArg(cn); ok {
						cfg.OneShot.MaxConcurrentListings = v
					}
				}
			}
		case "csv":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "parser_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.CSV.ParserWorkers = v
					}
				}
			}
		case "piste":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "client_id":
					if s, ok := firstStringArg(cn); ok {
						cfg.Piste.ClientID = s
					}
				case "client_secret":
					if s, ok := firstStringArg(cn); ok {
						cfg.Piste.ClientSecret = s
					}
				case "token_url":
					if s, ok := firstStringArg(cn); ok {
						cfg.Piste.TokenURL = s
					}
				case "base_url":
					if s, ok := firstStringArg(cn); ok {
						cfg.Piste.BaseURL = s
					}
				case "max_concurrent_pagination_fetches":
					if v, ok := firstIntArg(cn); ok {
						cfg.Piste.MaxConcurrentPaginationFetches = v
					}
				case "min_step_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Piste.MinStepSize = v
					}
				}
			}
		}
	}

	return cfg, nil
}

// Helper functions over the kdl-go document model, reused as-is across
// every section above.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB", used for
// the index/oneshot writer memory budgets when expressed as a string
// rather than a bare megabyte integer.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}
