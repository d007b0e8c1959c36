package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/ui/pretty"
	"github.com/yaklabco/asmbridge/pkg/mc"
)

func newTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List registered assembly targets",
		Long: `List every registered target with the architectures it answers to in a
triple and the processor names accepted by --cpu.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			colorMode, _ := cmd.Flags().GetString("color")
			out := cmd.OutOrStdout()
			styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode, out))

			targets := mc.Targets()
			if len(targets) == 0 {
				_, err := fmt.Fprintln(out, styles.Dim.Render("No targets registered."))
				return err
			}

			var sb strings.Builder
			for i, target := range targets {
				if i > 0 {
					sb.WriteString("\n")
				}
				fmt.Fprintf(&sb, "%s  %s\n", styles.Heading.Render(target.Name), target.Description)
				fmt.Fprintf(&sb, "  %s %s\n", styles.Dim.Render("arches:"), strings.Join(target.Arches, ", "))
				if len(target.CPUs) > 0 {
					fmt.Fprintf(&sb, "  %s %s\n", styles.Dim.Render("cpus:  "), strings.Join(target.CPUs, ", "))
				}
				parser := styles.Failure.Render("no")
				if target.HasAsmParser() {
					parser = styles.Success.Render("yes")
				}
				fmt.Fprintf(&sb, "  %s %s\n", styles.Dim.Render("parser:"), parser)
			}

			_, err := fmt.Fprint(out, sb.String())
			return err
		},
	}
}
