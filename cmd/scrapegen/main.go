// Command scrapegen builds n8n workflows that scrape Reddit for leads.
package main

import (
	"fmt"
	"os"
)

const usage = `scrapegen builds importable n8n workflows that scrape Reddit for leads.

Usage:
  scrapegen <command> [flags]

Commands:
  generate   write the workflow JSON for a config
  validate   check a config or a workflow document
  diagram    draw the workflow (mermaid, ascii, png)
  suggest    ask the configured model for keywords and tips
  guide      print the setup guide
  serve      run the browser configurator
  tui        run the terminal configurator
  mcp        serve MCP tools over stdio
  install    write ~/.scrapegen/settings.json and fetch optional tools
  version    print the version

Run "scrapegen <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "generate":
		runGenerate(args)
	case "validate":
		runValidate(args)
	case "diagram":
		runDiagram(args)
	case "suggest":
		runSuggest(args)
	case "guide":
		runGuide(args)
	case "serve":
		runServe(args)
	case "tui":
		runTUI(args)
	case "mcp":
		runMCP(args)
	case "install":
		runInstall(args)
	case "version", "--version", "-v":
		printVersion()
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
