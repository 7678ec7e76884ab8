package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL stat sheet loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths, in walk order, and merges all
// blocks into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.decodeInto(ctx, model, hclFile.Body, file); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.",
		"stats", len(model.Stats),
		"histories", len(model.Histories),
		"derived", len(model.Derived),
		"modifiers", len(model.Modifiers),
		"items", len(model.Items),
		"auras", len(model.Auras),
	)
	return model, nil
}

// LoadBytes parses a single in-memory sheet. filename is used in diagnostics.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	model := &config.Model{}
	if err := l.decodeInto(ctx, model, hclFile.Body, filename); err != nil {
		return nil, err
	}
	return model, nil
}

// decodeInto decodes one file body and appends its translated blocks to model.
func (l *Loader) decodeInto(ctx context.Context, model *config.Model, body hcl.Body, file string) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}

	for _, b := range root.Stats {
		model.Stats = append(model.Stats, translateStat(b))
	}
	for _, b := range root.Histories {
		model.Histories = append(model.Histories, translateHistory(b))
	}
	for _, b := range root.Trackers {
		model.Trackers = append(model.Trackers, translateTracker(b))
	}
	for _, b := range root.Derived {
		model.Derived = append(model.Derived, translateDerived(ctx, b))
	}
	for _, b := range root.Modifiers {
		model.Modifiers = append(model.Modifiers, translateModifier(ctx, b))
	}
	for _, b := range root.Items {
		model.Items = append(model.Items, translateItem(ctx, b))
	}
	for _, b := range root.Auras {
		model.Auras = append(model.Auras, translateAura(ctx, b))
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
