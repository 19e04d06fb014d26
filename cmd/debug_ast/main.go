package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shopware/vuedoc/internal/sfc"
	treesitterhelper "github.com/shopware/vuedoc/internal/tree_sitter_helper"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/debug_ast/main.go <component_file_path>")
		os.Exit(1)
	}
	log.SetFlags(0)

	filePath := os.Args[1]
	fmt.Printf("Analyzing AST for file: %s\n\n", filePath)

	loader, err := sfc.NewLoader()
	if err != nil {
		log.Fatalf("Failed to create parsers: %v", err)
	}
	defer loader.Close()

	file, err := loader.Load(filePath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", filePath, err)
	}
	defer file.Close()

	if file.Template != nil {
		log.Printf("== template (line %d)", file.Template.Line)
		treesitterhelper.PrintAllNodes(file.Template.Root, file.Template.Content, "")
	}

	if file.Script != nil {
		log.Printf("== script lang=%s setup=%t (line %d)", file.Lang, file.Setup, file.Script.Line)
		if file.Script.Root == nil {
			log.Printf("script could not be parsed")
			return
		}
		treesitterhelper.PrintAllNodes(file.Script.Root, file.Script.Content, "")
	}
}
