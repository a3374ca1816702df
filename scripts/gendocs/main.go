// Package main generates the markdown reference pages for sqltype: the
// CLI commands, the configuration keys and the analysis error kinds.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs/reference
//	go run ./scripts/gendocs -gen=errors -outdir=docs/reference
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
)

var (
	genFlag    = flag.String("gen", "all", "what to generate: cli, config, errors, all")
	outDirFlag = flag.String("outdir", "", "output directory (defaults based on gen type)")
)

type generator struct {
	name   string
	subdir string
	run    func(outDir string) error
}

var generators = []generator{
	{"cli", filepath.Join("docs", "cli"), generateCLIDocs},
	{"config", filepath.Join("docs", "reference"), generateConfigDocs},
	{"errors", filepath.Join("docs", "reference"), generateErrorDocs},
}

func main() {
	flag.Parse()

	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}
	log.Printf("Project root: %s", projectRoot)

	ran := false
	for _, g := range generators {
		if *genFlag != "all" && *genFlag != g.name {
			continue
		}
		outDir := *outDirFlag
		if outDir == "" || *genFlag == "all" {
			outDir = filepath.Join(projectRoot, g.subdir)
		}
		if err := g.run(outDir); err != nil {
			log.Fatalf("failed to generate %s docs: %v", g.name, err)
		}
		ran = true
	}
	if !ran {
		log.Fatalf("unknown -gen value: %s (use: cli, config, errors, all)", *genFlag)
	}

	log.Println("Done!")
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
