package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// writeApps renders apps in the requested format
func writeApps(w io.Writer, format string, apps []types.App) error {
	if apps == nil {
		apps = []types.App{}
	}

	switch format {
	case formatJSON, formatYAML:
		return writeStructured(w, format, apps)
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tUUID\tATTRIBUTES")
		for _, app := range apps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", app.ID, app.Name, app.UUID, attributeSummary(app.Attributes))
		}
		return tw.Flush()
	}
}

// writeApp renders a single app in the requested format
func writeApp(w io.Writer, format string, app types.App) error {
	switch format {
	case formatJSON, formatYAML:
		return writeStructured(w, format, app)
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\t%s\n", app.ID)
		fmt.Fprintf(tw, "NAME\t%s\n", app.Name)
		fmt.Fprintf(tw, "UUID\t%s\n", app.UUID)
		for _, key := range sortedKeys(app.Attributes) {
			fmt.Fprintf(tw, "%s\t%v\n", strings.ToUpper(key), app.Attributes[key])
		}
		return tw.Flush()
	}
}

func writeStructured(w io.Writer, format string, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if format == formatYAML {
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	} else {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

func attributeSummary(attrs map[string]any) string {
	parts := make([]string, 0, len(attrs))
	for _, key := range sortedKeys(attrs) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, attrs[key]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
