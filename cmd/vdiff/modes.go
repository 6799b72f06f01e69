package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/vdiff/mode"
)

type modeEntry struct {
	ID       mode.ID       `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Category mode.Category `json:"category" yaml:"category"`
	Default  bool          `json:"default,omitempty" yaml:"default,omitempty"`
}

func runModes(args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("modes", stderr)
	format := fs.String("format", "", "output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.setup(stderr)
	if err != nil {
		return err
	}
	if *format == "" {
		*format = cfg.Format
	}

	var entries []modeEntry
	for _, cat := range mode.Categories() {
		for _, rec := range mode.ByCategory(cat) {
			entries = append(entries, modeEntry{
				ID:       rec.ID,
				Name:     rec.Name,
				Category: rec.Category,
				Default:  rec.ID == mode.Default,
			})
		}
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		defer enc.Close()
		return enc.Encode(entries)
	case "text":
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY")
		for _, e := range entries {
			id := string(e.ID)
			if e.Default {
				id += " *"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", id, e.Name, e.Category)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown format %q", *format)
}
