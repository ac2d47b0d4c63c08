// Package geoip builds Surge IP-CIDR rulesets from an MMDB database.
package geoip

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/oschwald/maxminddb-golang"
)

// Index maps country or category codes to the CIDRs registered under them.
type Index struct {
	cidrs map[string][]string
}

// LoadFile reads an MMDB file from disk and builds the index.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mmdb: %w", err)
	}
	return Load(data)
}

// Load parses MMDB bytes and indexes every network by its code. Records may
// carry the code as a plain string, a nested country.iso_code, a top-level
// iso_code or a "code" field, depending on the database flavor.
func Load(data []byte) (*Index, error) {
	db, err := maxminddb.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("open mmdb: %w", err)
	}
	defer db.Close()

	cidrs := make(map[string][]string)
	networks := db.Networks(maxminddb.SkipAliasedNetworks)
	for networks.Next() {
		var record interface{}
		subnet, err := networks.Network(&record)
		if err != nil {
			continue
		}

		code := extractCode(record)
		if code == "" {
			continue
		}
		code = strings.ToUpper(code)
		cidrs[code] = append(cidrs[code], subnet.String())
	}
	if err := networks.Err(); err != nil {
		return nil, fmt.Errorf("iterate mmdb networks: %w", err)
	}

	return &Index{cidrs: cidrs}, nil
}

func extractCode(record interface{}) string {
	switch v := record.(type) {
	case string:
		return v
	case map[string]interface{}:
		if c, ok := v["country"].(map[string]interface{}); ok {
			if iso, ok := c["iso_code"].(string); ok {
				return iso
			}
		}
		if iso, ok := v["iso_code"].(string); ok {
			return iso
		}
		if s, ok := v["code"].(string); ok {
			return s
		}
	}
	return ""
}

// CIDRs returns the networks registered under the given code.
func (i *Index) CIDRs(code string) ([]string, bool) {
	cidrs, ok := i.cidrs[strings.ToUpper(code)]
	return cidrs, ok
}

// Codes returns all indexed codes, sorted.
func (i *Index) Codes() []string {
	codes := make([]string, 0, len(i.cidrs))
	for code := range i.cidrs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lines renders CIDRs as Surge ruleset lines, IP-CIDR6 for IPv6 networks.
func Lines(cidrs []string) []string {
	lines := make([]string, 0, len(cidrs))
	for _, cidr := range cidrs {
		if strings.Contains(cidr, ":") {
			lines = append(lines, "IP-CIDR6,"+cidr)
		} else {
			lines = append(lines, "IP-CIDR,"+cidr)
		}
	}
	return lines
}
