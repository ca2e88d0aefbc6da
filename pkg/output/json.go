package output

import (
	"encoding/json"
	"time"

	"github.com/sonemaro/dbwalk/pkg/diag"
	"github.com/sonemaro/dbwalk/pkg/logger"
	"github.com/sonemaro/dbwalk/pkg/walker"
)

// rootDocument is one root in structured output
type rootDocument struct {
	Path     string   `json:"path" yaml:"path" toml:"path"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Tolerant bool     `json:"tolerant" yaml:"tolerant" toml:"tolerant"`
	Files    []string `json:"files" yaml:"files" toml:"files"`
}

// document is the shared shape of the JSON, YAML and TOML output
type document struct {
	RunID      string                `json:"runId,omitempty" yaml:"runId,omitempty" toml:"run_id,omitempty"`
	Generated  time.Time             `json:"generated" yaml:"generated" toml:"generated"`
	Roots      []rootDocument        `json:"roots" yaml:"roots" toml:"roots"`
	Warnings   []diag.Warning        `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
	Statistics *walker.StatsSnapshot `json:"statistics,omitempty" yaml:"statistics,omitempty" toml:"statistics,omitempty"`
}

func (f *formatter) buildDocument(result *Result) *document {
	doc := &document{
		RunID:     result.RunID,
		Generated: time.Now().UTC().Truncate(time.Second),
		Roots:     []rootDocument{},
		Warnings:  result.Warnings,
	}

	for _, group := range groupByRoot(result) {
		f.log.WithFields(logger.Fields{
			"root":  group.root.Path,
			"files": len(group.files),
		}).Trace("Converting root for structured output")

		rd := rootDocument{
			Path:     group.root.Path,
			Label:    group.root.Label,
			Tolerant: group.root.TolerateMissing,
			Files:    make([]string, 0, len(group.files)),
		}
		for _, file := range group.files {
			rd.Files = append(rd.Files, file.Path)
		}
		doc.Roots = append(doc.Roots, rd)
	}

	if f.config.WithStats && result.Stats != nil {
		f.log.Debug("Adding statistics to structured output")
		stats := *result.Stats
		doc.Statistics = &stats
	}

	return doc
}

func (f *formatter) formatJSON(result *Result) (string, error) {
	f.log.Debug("Formatting JSON output")

	bytes, err := json.MarshalIndent(f.buildDocument(result), "", "  ")
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal JSON")
		return "", err
	}

	return string(bytes), nil
}
