package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/config"
)

// ErrNoMacro is returned when no macro use covers the requested position.
var ErrNoMacro = errors.New("no macro use at position")

func newExpandCommand() *cobra.Command {
	var cfg config.Config
	flags := &targetFlags{}

	cmd := &cobra.Command{
		Use:   "expand FILE LINE:COL",
		Short: "Print the expansion of the macro use at a position",
		Long: `Print the assembly text a macro use expands to.

LINE and COL are one-based, as printed in diagnostics.

Examples:
  asmbridge expand head.S 12:9
  asmbridge expand -D PAGE_SHIFT=12 mm.S 40:17`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[1])
			if err != nil {
				return err
			}

			flags.apply(cmd, &cfg)
			resolved, err := loadConfig(cmd, &cfg)
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

			ref, ok := ast.MacroRefAt(pos)
			if !ok || ast.Tokens == nil {
				return newUsageError(fmt.Errorf("%w %s", ErrNoMacro, args[1]))
			}
			expansion, ok := ast.Tokens.MacroExpansion(ref.Loc, ast.SourceManager)
			if !ok {
				return newUsageError(fmt.Errorf("%w %s", ErrNoMacro, args[1]))
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), expansion)
			return err
		},
	}

	addTargetFlags(cmd, flags)
	return cmd
}
