package cli

import (
	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/pkg/config"
)

func newTokensCommand() *cobra.Command {
	var cfg config.Config
	flags := &targetFlags{}

	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "Dump the reconstructed assembly buffer",
		Long: `Preprocess FILE and print every token with its buffer offset and source
location, followed by the reconstructed text handed to the assembler.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, &cfg)
			resolved, err := loadConfig(cmd, &cfg)
			if err != nil {
				return err
			}

			ast, err := parseFile(commandContext(cmd), resolved, args[0])
			if ast == nil || ast.Tokens == nil {
				return err
			}
			return ast.Tokens.Dump(cmd.OutOrStdout(), ast.SourceManager)
		},
	}

	addTargetFlags(cmd, flags)
	return cmd
}
