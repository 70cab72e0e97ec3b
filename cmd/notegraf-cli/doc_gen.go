//go:build ignore

// Generates the command reference: go run ./cmd/notegraf-cli/doc_gen.go -out docs
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra/doc"

	"github.com/mithrel/notegraf-cli/internal/cli"
)

func main() {
	out := flag.String("out", "docs", "directory for the markdown/ and man/ trees")
	flag.Parse()

	root := cli.NewRootCmd()
	root.DisableAutoGenTag = true

	md := filepath.Join(*out, "markdown")
	man := filepath.Join(*out, "man")
	for _, dir := range []string{md, man} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	front := func(name string) string {
		base := strings.TrimSuffix(filepath.Base(name), ".md")
		return "---\ntitle: " + strings.ReplaceAll(base, "_", " ") + "\n---\n\n"
	}
	link := func(name string) string { return strings.TrimSuffix(name, ".md") }
	if err := doc.GenMarkdownTreeCustom(root, md, front, link); err != nil {
		log.Fatal(err)
	}

	now := time.Now()
	header := &doc.GenManHeader{
		Title:   "NOTEGRAF-CLI",
		Section: "1",
		Source:  "notegraf-cli",
		Manual:  "notegraf manual",
		Date:    &now,
	}
	if err := doc.GenManTree(root, header, man); err != nil {
		log.Fatal(err)
	}
}
