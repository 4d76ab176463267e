//go:build ignore
// +build ignore

package main

import (
	"log"

	docgen "github.com/mithrel/docgen/internal/cli"
	"github.com/spf13/cobra/doc"
)

func main() {
	root := docgen.NewRootCmd()

	if err := doc.GenMarkdownTree(root, "./docs/markdown"); err != nil {
		log.Fatal(err)
	}

	header := &doc.GenManHeader{
		Title:   "DOCGEN",
		Section: "1",
	}
	if err := doc.GenManTree(root, header, "./docs/man"); err != nil {
		log.Fatal(err)
	}
}
