package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/asmast"
	"github.com/yaklabco/asmbridge/pkg/config"
	"github.com/yaklabco/asmbridge/pkg/markup"
)

// ErrNoDocumentation is returned when the index has no entry for a lookup.
var ErrNoDocumentation = errors.New("no documentation")

type docFlags struct {
	output docOutputFlags
	dot    bool
	docs   string
}

func newDocCommand() *cobra.Command {
	var cfg config.Config
	flags := &docFlags{}

	cmd := &cobra.Command{
		Use:   "doc MNEMONIC ARGC",
		Short: "Show the documentation of an instruction",
		Long: `Look up an instruction by mnemonic and operand count.

Mnemonics match case-insensitively. A trailing '.' on MNEMONIC, or --dot,
selects the record form.

Examples:
  asmbridge doc add 3
  asmbridge doc add. 3 --plain
  asmbridge doc li 2 --docs power-isa.json`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			argc, err := strconv.Atoi(args[1])
			if err != nil || argc < 0 {
				return newUsageError(fmt.Errorf("ARGC must be a non-negative integer: %q", args[1]))
			}

			mnemonic, isDot := strings.CutSuffix(args[0], ".")
			isDot = isDot || flags.dot

			if cmd.Flags().Changed("docs") {
				cfg.DocsPath = flags.docs
			}
			resolved, err := loadConfig(cmd, &cfg)
			if err != nil {
				return err
			}
			idx, err := docsIndex(resolved)
			if err != nil {
				return err
			}

			found, ok := idx.Resolve(mnemonic, asmast.AnnotatedInstruction{
				Mnemonic: mnemonic,
				Argc:     argc,
				IsDot:    isDot,
			})
			if !ok {
				logging.FromContext(commandContext(cmd)).Debug("lookup missed",
					logging.FieldMnemonic, mnemonic,
					logging.FieldArgc, argc,
					"names", idx.Len(),
				)
				return newUsageError(fmt.Errorf("%w for %s with %d operands", ErrNoDocumentation, args[0], argc))
			}

			doc := &markup.Document{}
			found.Render(doc)
			return writeDocument(cmd.OutOrStdout(), doc, &flags.output)
		},
	}

	addDocOutputFlags(cmd, &flags.output)
	cmd.Flags().BoolVar(&flags.dot, "dot", false, "look up the record form")
	cmd.Flags().StringVar(&flags.docs, "docs", "", "instruction documentation file (JSON or YAML)")

	return cmd
}
