package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/socgen/internal/addrmap"
	"github.com/roach88/socgen/internal/compiler"
	"github.com/roach88/socgen/internal/emit"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/variant"
)

// RegionsOptions holds flags for the regions command.
type RegionsOptions struct {
	*RootOptions
	SoC    string
	Params bool // also list each instance's parameter bundle
	Decode uint64
}

// Decoded reports which window an address falls in.
type Decoded struct {
	Addr     uint64 `json:"addr"`
	Region   string `json:"region,omitempty"`
	Reserved bool   `json:"reserved,omitempty"`
}

// SoCRegions is the JSON payload for one SoC's address map.
type SoCRegions struct {
	SoC       string        `json:"soc"`
	Reserved  []ir.Region   `json:"reserved"`
	Regions   []ir.Region   `json:"regions"`
	Instances []ir.Instance `json:"instances,omitempty"`
	Decoded   *Decoded      `json:"decoded,omitempty"`
}

// NewRegionsCommand creates the regions command.
func NewRegionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "regions <configs-dir>",
		Short: "Show the address map of SoC configs",
		Long: `Build each SoC config in memory and print its address map: reserved
windows and the regions of attached peripherals. With --decode, also report
which window an address falls in. Nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegions(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SoC, "soc", "", "only show this SoC config")
	cmd.Flags().BoolVar(&opts.Params, "params", false, "list instance parameters")
	cmd.Flags().Uint64Var(&opts.Decode, "decode", 0, "report the region holding this address (0x prefix for hex)")

	return cmd
}

func runRegions(opts *RegionsOptions, configsDir string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	var configs []ir.Config
	if opts.SoC != "" {
		cfg, err := loadOne(configsDir, opts.SoC, formatter)
		if err != nil {
			return err
		}
		configs = []ir.Config{cfg}
	} else {
		loadResult, loadErrors := LoadConfigs(configsDir, LoadModeCollectAll)
		if loadResult == nil && len(loadErrors) > 0 {
			code, message := loadErrorCode(loadErrors[0])
			return formatter.Fail(code, message, nil)
		}
		if len(loadErrors) > 0 {
			return formatter.LoadFailures(loadErrors)
		}
		configs = loadResult.Configs
	}

	decode := cmd.Flags().Changed("decode")
	table := variant.Default()
	maps := make([]SoCRegions, 0, len(configs))
	for i := range configs {
		cfg := configs[i]
		if errs := compiler.Validate(&cfg, table); len(errs) > 0 {
			return outputValidationErrors(formatter, errs)
		}
		integ, err := newIntegrator(cfg, table, logger)
		if err != nil {
			return formatter.BuildFailure(err)
		}
		bundle, err := integ.Build()
		if err != nil {
			return formatter.BuildFailure(err)
		}

		amap := integ.AddressMap()
		m := SoCRegions{
			SoC:      bundle.SoC,
			Reserved: amap.Reserved(),
			Regions:  amap.Regions(),
		}
		if opts.Params {
			m.Instances = bundle.Instances
		}
		if decode {
			m.Decoded = decodeAddr(amap, opts.Decode)
		}
		maps = append(maps, m)
	}

	if formatter.Format == "json" {
		return formatter.Success(maps)
	}

	for i, m := range maps {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		fmt.Fprintf(formatter.Writer, "%s:\n", m.SoC)
		if err := emit.RegionTable(formatter.Writer, m.Reserved, m.Regions); err != nil {
			return err
		}
		if d := m.Decoded; d != nil {
			switch {
			case d.Region == "":
				fmt.Fprintf(formatter.Writer, "0x%08x: unmapped\n", d.Addr)
			case d.Reserved:
				fmt.Fprintf(formatter.Writer, "0x%08x: %s (reserved)\n", d.Addr, d.Region)
			default:
				fmt.Fprintf(formatter.Writer, "0x%08x: %s\n", d.Addr, d.Region)
			}
		}
		for _, in := range m.Instances {
			fmt.Fprintln(formatter.Writer)
			if err := emit.ParamList(formatter.Writer, in); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeAddr looks addr up in the peripheral regions, then the reserved
// windows.
func decodeAddr(amap *addrmap.Map, addr uint64) *Decoded {
	d := &Decoded{Addr: addr}
	if r, ok := amap.Decode(addr); ok {
		d.Region = r.Name
		return d
	}
	for _, r := range amap.Reserved() {
		if r.Contains(addr) {
			d.Region = r.Name
			d.Reserved = true
			break
		}
	}
	return d
}
