package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/config"
	"github.com/yaklabco/asmbridge/pkg/hover"
)

// ErrNoHover is returned when nothing documented is under the position.
var ErrNoHover = errors.New("nothing to show at position")

func newHoverCommand() *cobra.Command {
	var cfg config.Config
	target := &targetFlags{}
	output := &docOutputFlags{}
	var docs string

	cmd := &cobra.Command{
		Use:   "hover FILE LINE:COL",
		Short: "Show what an editor would display at a position",
		Long: `Show the expansion of a macro use or the documentation of the instruction
at a position. LINE and COL are one-based.

Examples:
  asmbridge hover head.S 12:3
  asmbridge hover --docs power-isa.json --plain head.S 12:3`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[1])
			if err != nil {
				return err
			}

			target.apply(cmd, &cfg)
			if cmd.Flags().Changed("docs") {
				cfg.DocsPath = docs
			}
			resolved, err := loadConfig(cmd, &cfg)
			if err != nil {
				return err
			}
			idx, err := docsIndex(resolved)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			ast, err := parseFile(ctx, resolved, args[0])
			if ast == nil {
				return err
			}
			if err != nil {
				logging.FromContext(ctx).Debug("parse incomplete", logging.FieldFile, args[0], logging.FieldError, err)
			}

			res, ok := hover.At(ast, idx, pos)
			if !ok {
				return newUsageError(fmt.Errorf("%w %s", ErrNoHover, args[1]))
			}

			logging.FromContext(ctx).Debug("hover",
				"kind", res.Kind.String(),
				"line", res.Range.Start.Line+1,
				"column", res.Range.Start.Character+1,
			)
			return writeDocument(cmd.OutOrStdout(), res.Contents, output)
		},
	}

	addTargetFlags(cmd, target)
	addDocOutputFlags(cmd, output)
	cmd.Flags().StringVar(&docs, "docs", "", "instruction documentation file (JSON or YAML)")

	return cmd
}
