package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type pluginInfo struct {
	Kind        string         `json:"kind"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"config_schema"`
}

func (c *cli) pluginsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the available readers and stores with their configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := c.pluginInfos()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tOPTIONS\tDESCRIPTION")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Kind, info.Name, schemaKeys(info.Schema), info.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full config schemas as JSON")
	return cmd
}

func (c *cli) pluginInfos() []pluginInfo {
	var infos []pluginInfo
	for _, p := range c.registry.ListReaders() {
		infos = append(infos, pluginInfo{Kind: "reader", Name: p.Name(), Description: p.Description(), Schema: p.ConfigSchema()})
	}
	for _, p := range c.registry.ListStores() {
		infos = append(infos, pluginInfo{Kind: "store", Name: p.Name(), Description: p.Description(), Schema: p.ConfigSchema()})
	}
	return infos
}

// schemaKeys returns the sorted top-level property names of a JSON schema.
func schemaKeys(schema map[string]any) string {
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
