package cmd

import (
	"fmt"
	"io"

	"mindroute/pkg/persona"

	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Print the classifier and persona prompts in effect",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadRuntime("cmd.personas")
		if err != nil {
			return err
		}

		prompts, err := persona.Load(cfg.Personas)
		if err != nil {
			return fmt.Errorf("failed to resolve personas: %w", err)
		}

		return printPersonas(cmd.OutOrStdout(), prompts)
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}

func printPersonas(out io.Writer, prompts persona.Prompts) error {
	schema := persona.ClassifierSchema()
	fmt.Fprintf(out, "== classifier (%s: %v)\n%s\n", schema.Field, schema.Values, prompts.Classifier)

	for _, name := range persona.Names() {
		prompt, err := prompts.For(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n== %s\n%s\n", name, prompt)
	}

	return nil
}
