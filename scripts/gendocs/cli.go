package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/pype/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// generateCLIDocs writes an index page plus one page per command,
// subcommands included.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := documented(root)

	if err := writePage(outDir, "index", cliIndex(root, pages)); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	for _, cmd := range pages {
		if err := writePage(outDir, pageName(cmd), commandPage(cmd)); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.CommandPath(), err)
		}
	}
	return nil
}

// documented lists the commands below root that get a page, depth first.
func documented(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	var walk func(*cobra.Command)
	walk = func(parent *cobra.Command) {
		for _, cmd := range parent.Commands() {
			if !cmd.IsAvailableCommand() || cmd.Name() == "help" {
				continue
			}
			out = append(out, cmd)
			walk(cmd)
		}
	}
	walk(root)
	return out
}

// pageName is the command path without the binary, joined by dashes:
// "pype query tables" becomes "query-tables".
func pageName(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	return strings.Join(parts[1:], "-")
}

func pageLink(cmd *cobra.Command) string {
	name := strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")
	return fmt.Sprintf("[%s](/cli/%s)", InlineCode(name), pageName(cmd))
}

func writePage(outDir, name string, w *MarkdownWriter) error {
	if err := os.WriteFile(filepath.Join(outDir, name+".md"), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated %s.md", name)
	return nil
}

func cliIndex(root *cobra.Command, pages []*cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for pype")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/pype/cmd/pype@latest")

	w.Header(2, "Commands")
	rows := make([][]string, 0, len(pages))
	for _, cmd := range pages {
		rows = append(rows, []string{pageLink(cmd), cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Flags")
	w.Paragraph("Every command accepts these flags:")
	w.Table(flagHeaders, flagRows(root.PersistentFlags()))

	w.Header(2, "Environment Variables")
	w.Paragraph("Flags take precedence over environment variables, which take precedence over `pype.yaml`.")
	envRows := make([][]string, 0, len(configKeys()))
	for _, key := range configKeys() {
		envRows = append(envRows, []string{InlineCode(envName(key.Name)), key.Description})
	}
	w.Table([]string{"Variable", "Description"}, envRows)

	w.Header(2, "Exit Status")
	w.BulletList([]string{
		InlineCode("0") + " when every command step succeeded",
		InlineCode("1") + " on any error, including files that failed to check; the reason is printed on stderr",
	})
	return w
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	path := cmd.CommandPath()

	w := NewMarkdownWriter()
	w.Frontmatter(path, cmd.Short)
	w.GeneratedMarker()

	w.Header(1, path)
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	usage := cmd.UseLine()
	if cmd.HasAvailableSubCommands() && !cmd.Runnable() {
		usage = path + " <command>"
	}
	w.CodeBlock("bash", usage)

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}

	if flags := cmd.NonInheritedFlags(); flags.HasAvailableFlags() {
		w.Header(2, "Flags")
		w.Table(flagHeaders, flagRows(flags))
	}

	var related []string
	if parent := cmd.Parent(); parent != nil && parent.HasParent() {
		related = append(related, pageLink(parent)+" - "+cleanDescription(parent.Short))
	}
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			related = append(related, pageLink(sub)+" - "+cleanDescription(sub.Short))
		}
	}
	related = append(related, "[Global flags](/cli/#global-flags)")
	w.Header(2, "See Also")
	w.BulletList(related)
	return w
}

var flagHeaders = []string{"Flag", "Type", "Default", "Description"}

func flagRows(flags *pflag.FlagSet) [][]string {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}
		def := ""
		if f.DefValue != "" && f.DefValue != "[]" && f.DefValue != "0" && f.DefValue != "false" {
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{name, f.Value.Type(), def, cleanDescription(f.Usage)})
	})
	return rows
}

// dedent strips the indentation shared by every non-blank line.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	common := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if n := len(line) - len(trimmed); common < 0 || n < common {
			common = n
		}
	}
	for i, line := range lines {
		if len(line) >= common && common > 0 {
			lines[i] = line[common:]
		}
	}
	return strings.Join(lines, "\n")
}
