package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/geoip"
)

// BuildGeoIP writes one geoip-<code>.list ruleset per requested code. Codes
// with no networks in the database are skipped with a warning. When codes is
// empty, every code in the database is emitted.
func (b *Builder) BuildGeoIP(index *geoip.Index, codes []string) (int, error) {
	if len(codes) == 0 {
		codes = index.Codes()
	}
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	written := 0
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		cidrs, ok := index.CIDRs(code)
		if !ok {
			b.logger.Warn("geoip code not in database", "code", code)
			continue
		}

		var sb strings.Builder
		sb.WriteString(b.renderHeader())
		for _, line := range geoip.Lines(cidrs) {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}

		path := filepath.Join(b.outDir, "geoip-"+strings.ToLower(code)+".list")
		if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written++
		b.logger.Debug("geoip ruleset generated", "code", code, "cidrs", len(cidrs))
	}
	return written, nil
}
