// Package main generates Markdown reference documentation for pype from its
// source: the CLI command tree and the configuration keys.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs/reference
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var (
	genFlag    = flag.String("gen", "all", "what to generate: cli, config, all")
	outDirFlag = flag.String("outdir", "", "output directory (defaults based on gen type)")
)

func main() {
	flag.Parse()

	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}
	log.Printf("Project root: %s", projectRoot)

	if err := generate(*genFlag, *outDirFlag, projectRoot); err != nil {
		log.Fatal(err)
	}
	log.Println("Done!")
}

// generate writes the documentation selected by gen. An empty outDir picks
// the default location under projectRoot/docs.
func generate(gen, outDir, projectRoot string) error {
	dirFor := func(def string) string {
		if outDir != "" {
			return outDir
		}
		return filepath.Join(projectRoot, "docs", def)
	}

	switch gen {
	case "cli":
		return generateCLIDocs(dirFor("cli"))
	case "config":
		return generateConfigDocs(dirFor("reference"))
	case "all":
		if err := generateCLIDocs(filepath.Join(projectRoot, "docs", "cli")); err != nil {
			return err
		}
		return generateConfigDocs(filepath.Join(projectRoot, "docs", "reference"))
	default:
		return fmt.Errorf("unknown -gen value: %s (use: cli, config, all)", gen)
	}
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
