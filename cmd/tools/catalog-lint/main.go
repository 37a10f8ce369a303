// cmd/tools/catalog-lint/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"property-chat/internal/matcher"
)

const defaultCatalogPath = "configs/intents.yaml"

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	matchCmd := flag.NewFlagSet("match", flag.ExitOnError)
	dumpCmd := flag.NewFlagSet("dump", flag.ExitOnError)

	validatePath := validateCmd.String("path", defaultCatalogPath, "Path to the intent catalog")
	listPath := listCmd.String("path", defaultCatalogPath, "Path to the intent catalog")
	matchPath := matchCmd.String("path", "", "Path to the intent catalog (built-in catalog when empty)")
	threshold := matchCmd.Float64("threshold", 0.1, "Minimum confidence for a non-unclear intent")
	dumpOut := dumpCmd.String("out", defaultCatalogPath, "File to write the built-in catalog to")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		catalog, err := matcher.LoadCatalogFile(*validatePath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed. Found %d intents.\n", catalog.Len())

	case "list":
		listCmd.Parse(os.Args[2:])
		catalog, err := matcher.LoadCatalogFile(*listPath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		listIntents(catalog)

	case "match":
		matchCmd.Parse(os.Args[2:])
		text := strings.Join(matchCmd.Args(), " ")
		if strings.TrimSpace(text) == "" {
			fmt.Println("Error: a sample message is required for match.")
			matchCmd.Usage()
			os.Exit(1)
		}
		if err := matchText(*matchPath, *threshold, text); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	case "dump":
		dumpCmd.Parse(os.Args[2:])
		if err := dumpBuiltin(*dumpOut); err != nil {
			fmt.Printf("Error writing catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote built-in catalog to %s\n", *dumpOut)

	case "help":
		fallthrough
	default:
		help()
	}
}

func listIntents(catalog *matcher.Catalog) {
	for _, in := range catalog.Intents() {
		fmt.Printf("%-18s priority=%-3d patterns=%-3d responses=%-2d actions=%d\n",
			in.Name, in.Priority, len(in.Patterns), len(in.Responses), len(in.Actions))
	}
}

func matchText(path string, threshold float64, text string) error {
	var catalog *matcher.Catalog
	if path != "" {
		c, err := matcher.LoadCatalogFile(path)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		catalog = c
	}

	result := matcher.New(catalog, matcher.FixedSelector{Index: 0}, threshold).Process(text)
	out, err := json.MarshalIndent(map[string]interface{}{
		"detection": result.Detection,
		"entities":  result.Entities,
		"reply":     result.Reply,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func dumpBuiltin(path string) error {
	data, err := matcher.MarshalCatalog(matcher.DefaultCatalog())
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func help() {
	fmt.Print(`
Usage: catalog-lint <command> [flags]

Commands:
  validate  Validate an intent catalog file
  list      List the intents of a catalog file
  match     Show detection, entities and reply for a sample message
  dump      Write the built-in catalog as YAML
  help      Show this help message

Examples:
  catalog-lint validate -path configs/intents.yaml
  catalog-lint list -path configs/intents.yaml
  catalog-lint match -path configs/intents.yaml "2 bhk flat on rent in gomti nagar"
  catalog-lint dump -out configs/intents.yaml

Use 'catalog-lint <command> -h' for more information about a command.
`)
}
