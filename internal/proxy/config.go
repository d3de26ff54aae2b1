package proxy

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// rulesFile is the on-disk shape of ANYCRAWL_PROXY_CONFIG.
type rulesFile struct {
	Rules []Rule `toml:"rules"`
}

// LoadRules reads and parses the rules file at path. A missing path or
// missing file is not an error — it simply yields no rules, falling through
// to tiered fallback (spec §4.1: "returns null (no-proxy) when neither a
// rule nor a tier URL is configured").
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("proxy: reading rules file %q: %w", path, err)
	}

	var rf rulesFile
	if err := toml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("%w: parsing rules file %q: %v", ErrProxyUnavailable, path, err)
	}
	return rf.Rules, nil
}
