// blueprint generates DynamoDB code from a resource model.
//
// # Installation
//
//	go install github.com/acksell/blueprint/cmd/blueprint@latest
//
// # Commands
//
//	blueprint gen       Render artifacts into the output directory
//	blueprint validate  Check a model without writing anything
//
// # Quick Start
//
// Describe the service in blueprint.yaml:
//
//	service: people
//	resources:
//	  - name: person
//	    attributes:
//	      - name: my-name
//	        required: true
//	    operations:
//	      - subType: CreateOne
//	      - subType: ReadOne
//
// Generate code:
//
//	blueprint gen -out ./generated
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "gen", "generate":
		err = runGen(args)
	case "validate", "check":
		err = runValidate(args)
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Printf("blueprint version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "blueprint: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "blueprint %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`blueprint - DynamoDB code from a resource model

Usage:
  blueprint <command> [flags]

Commands:
  gen        Render artifacts into the output directory
  validate   Check a model without writing anything
  version    Print the version

Examples:
  # Generate everything described by ./blueprint.yaml:
  blueprint gen

  # Only TypeScript types and commands, into ./src/generated:
  blueprint gen -targets typescript,ddbcmd -out ./src/generated

  # Fail instead of writing a schema that breaks stored items:
  blueprint gen -strict

Targets:
  typescript, ddbcmd, vtl, go, schema, table, sample

Environment:
  BLUEPRINT_LOG_LEVEL   log level (trace, debug, info, warn, error)

Run 'blueprint <command> -help' for more information on a command.`)
}
