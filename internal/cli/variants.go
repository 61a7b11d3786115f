package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/variant"
)

// VariantInfo is the JSON payload for one CPU variant.
type VariantInfo struct {
	variant.Profile
	HumanName string `json:"human_name"`
	GCCFlags  string `json:"gcc_flags"`
}

// NewVariantsCommand creates the variants command.
func NewVariantsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "variants",
		Short:         "List the supported CPU variants",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return outputVariants(NewOutputFormatter(rootOpts, cmd), variant.Default())
		},
	}

	return cmd
}

func outputVariants(formatter *OutputFormatter, table variant.Table) error {
	profiles := table.Profiles()
	infos := make([]VariantInfo, len(profiles))
	for i, p := range profiles {
		infos[i] = VariantInfo{Profile: p, HumanName: p.HumanName(), GCCFlags: p.GCCFlags()}
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "%s (%d): %s, %s\n",
			info.Variant, info.Index, info.HumanName, topologyLabel(info.Topology))
		fmt.Fprintf(formatter.Writer, "  %s\n", info.GCCFlags)
	}
	return nil
}

func topologyLabel(t ir.Topology) string {
	switch t {
	case ir.TopologySplit:
		return "split fetch/load-store buses"
	case ir.TopologyCombined:
		return "combined instruction/data bus"
	default:
		return string(t)
	}
}
