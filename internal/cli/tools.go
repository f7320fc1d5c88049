package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rahul/opsagent/internal/tools"
	"github.com/spf13/cobra"
)

type toolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func newToolsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the capabilities available to the planner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			reg, err := tools.NewDefaultRegistry(cfg.Tools, cfg.Policy)
			if err != nil {
				return err
			}
			return listTools(cmd.OutOrStdout(), reg, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func listTools(w io.Writer, reg *tools.Registry, asJSON bool) error {
	caps := reg.Capabilities()
	if asJSON {
		infos := make([]toolInfo, 0, len(caps))
		for _, c := range caps {
			infos = append(infos, toolInfo{Name: string(c.Name()), Description: c.Description(), Parameters: c.Parameters()})
		}
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	for _, c := range caps {
		fmt.Fprintf(w, "%s\n  %s\n", titleStyle.Render(string(c.Name())), c.Description())
		if params := paramNames(c.Parameters()); params != "" {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render("params: "+params))
		}
	}
	return nil
}

func paramNames(schema map[string]any) string {
	props, _ := schema["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
