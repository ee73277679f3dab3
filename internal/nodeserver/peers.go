package nodeserver

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// peersFile is the on-disk list of known nodes:
//
//	peers:
//	  - N2
//	  - N3
type peersFile struct {
	Peers []string `yaml:"peers"`
}

// LoadPeers reads the known-node list. An empty path or a missing file means
// no peers. Blank entries are dropped; order is kept.
func LoadPeers(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read peers: %w", err)
	}

	var doc peersFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse peers: %w", err)
	}

	peers := make([]string, 0, len(doc.Peers))
	for _, p := range doc.Peers {
		if p = strings.TrimSpace(p); p != "" {
			peers = append(peers, p)
		}
	}
	return peers, nil
}
