package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/khanhnv2901/hdrscan/internal/knowledge"
	"github.com/spf13/cobra"
)

var guidesLang string

var guidesCmd = &cobra.Command{
	Use:   "guides",
	Short: "Show guidelines on securing HTTP response headers in common web servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang := guidesLang
		if !cmd.Flags().Changed("lang") && cliConfig.Defaults.Lang != "" {
			lang = cliConfig.Defaults.Lang
		}
		kb, err := knowledge.Load(lang)
		if err != nil {
			return err
		}
		return writeGuides(cmd.OutOrStdout(), kb, consolePalette())
	},
}

func writeGuides(w io.Writer, kb *knowledge.Base, p palette) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", kb.Message("guides_intro"))
	for _, g := range kb.Guides() {
		fmt.Fprintf(&b, "%s\n", p.heading(g.Server))
		if g.Ref != "" {
			fmt.Fprintf(&b, " %s: %s\n", kb.Message("reference"), p.header(g.Ref))
		}
		for _, l := range g.Lines {
			fmt.Fprintf(&b, "   %s\n", l)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func init() {
	guidesCmd.Flags().StringVarP(&guidesLang, "lang", "l", defaultLang, "guide language (en, es)")
}
