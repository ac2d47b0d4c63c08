// Package builder drives a full conversion run: every rule-set the source
// provides is resolved, rendered, validated and written, together with one
// filtered output per observed attribute tag.
package builder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/converter"
)

// Header metadata embedded at the top of every generated file.
type Header struct {
	CommitID   string
	SourceDate string
}

// Summary reports what a build produced.
type Summary struct {
	Rulesets     int
	Files        int
	DroppedLines int
}

// Builder converts every rule-set in a Source into Surge ruleset files.
type Builder struct {
	source converter.Source
	outDir string
	opts   converter.Options
	header Header
	logger *slog.Logger

	// now is swapped in tests for deterministic headers.
	now func() time.Time
}

func New(source converter.Source, outDir string, opts converter.Options, header Header, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		source: source,
		outDir: outDir,
		opts:   opts,
		header: header,
		logger: logger,
		now:    time.Now,
	}
}

// Build resolves and writes every rule-set. Resolution runs sequentially so
// the memo cache stays single-writer; rendering and file writing fan out
// afterwards, over rule sequences that are immutable by then.
func (b *Builder) Build() (Summary, error) {
	names, err := b.source.Names()
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}

	resolver := converter.NewResolver(b.source)
	resolved := make(map[string][]converter.Rule, len(names))
	for _, name := range names {
		resolved[name] = resolver.Resolve(name)
	}

	var files, dropped atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(8)
	for _, name := range names {
		rules := resolved[name]
		g.Go(func() error {
			f, d, err := b.writeRuleset(name, rules)
			if err != nil {
				return err
			}
			files.Add(int64(f))
			dropped.Add(int64(d))
			b.logger.Debug("ruleset generated", "name", name, "rules", len(rules), "dropped", d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Rulesets:     len(names),
		Files:        int(files.Load()),
		DroppedLines: int(dropped.Load()),
	}, nil
}

// writeRuleset writes the full output file for one rule-set plus one
// attribute-scoped file per observed tag. An attribute file is written only
// when its filtered rule set is non-empty.
func (b *Builder) writeRuleset(name string, rules []converter.Rule) (files, dropped int, err error) {
	d, err := b.writeFile(name+".list", rules)
	if err != nil {
		return files, dropped, err
	}
	files, dropped = 1, d

	for _, attr := range converter.CollectAttrs(rules) {
		filtered := converter.FilterByAttr(rules, attr)
		if len(filtered) == 0 {
			continue
		}
		d, err := b.writeFile(name+"@"+attr+".list", filtered)
		if err != nil {
			return files, dropped, err
		}
		files++
		dropped += d
	}
	return files, dropped, nil
}

func (b *Builder) writeFile(filename string, rules []converter.Rule) (dropped int, err error) {
	lines, dropped := converter.RenderRuleset(rules, b.opts)

	var sb strings.Builder
	sb.WriteString(b.renderHeader())
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	path := filepath.Join(b.outDir, filename)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return dropped, fmt.Errorf("write %s: %w", path, err)
	}
	return dropped, nil
}

func (b *Builder) renderHeader() string {
	lines := []string{
		"# Source: v2fly/domain-list-community",
		fmt.Sprintf("# DLC commit: %s (%s)", b.header.CommitID, b.header.SourceDate),
		fmt.Sprintf("# Generated at: %sZ", b.now().UTC().Format("2006-01-02T15:04:05")),
		"# Notes:",
		"# - includes resolved recursively; attributes preserved.",
		"# - regexp: best-effort DOMAIN/DOMAIN-WILDCARD; else fallback to URL-REGEX.",
		"",
	}
	return strings.Join(lines, "\n") + "\n"
}
