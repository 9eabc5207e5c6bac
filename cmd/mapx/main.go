package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hengadev/mapx"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (ignore error if it doesn't)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "marshal":
		marshalCommand(os.Args[2:])
	case "serialize":
		serializeCommand(os.Args[2:])
	case "validate":
		validateCommand(os.Args[2:])
	case "version":
		versionCommand()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  marshal    Convert a data document into an object of a schema\n")
	fmt.Fprintf(os.Stderr, "  serialize  Convert an object document into the data of a schema\n")
	fmt.Fprintf(os.Stderr, "  validate   Check a schema file\n")
	fmt.Fprintf(os.Stderr, "  version    Show version information\n")
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -h' for help on a specific command.\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nEnvironment: %s, %s, %s, %s, %s\n",
		mapx.EnvSchemaFile, mapx.EnvDataFormat, mapx.EnvRole, mapx.EnvLogLevel, mapx.EnvLogFormat)
}

type commonFlags struct {
	schema *string
	format *string
	role   *string
}

func registerCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		schema: fs.String("schema", "", "Path to the YAML schema file"),
		format: fs.String("format", "", "Data format: json or yaml"),
		role:   fs.String("role", "", "Role to apply"),
	}
}

func (c commonFlags) overrides() flagOverrides {
	return flagOverrides{SchemaFile: *c.schema, DataFormat: *c.format, Role: *c.role}
}

func marshalCommand(args []string) {
	fs := flag.NewFlagSet("marshal", flag.ExitOnError)
	common := registerCommonFlags(fs)
	name := fs.String("name", "", "Schema name")
	dump := fs.Bool("dump", false, "Dump the marshaled object instead of encoding it")

	fs.Parse(args)

	app, err := newApp(common.overrides(), os.Getenv)
	if err != nil {
		fail("Configuration failed", err)
	}
	doc, err := app.readDocument(fs.Arg(0))
	if err != nil {
		fail("Failed to read input", err)
	}
	err = app.marshal(os.Stdout, *name, doc, *dump)
	app.reportMetrics()
	if err != nil {
		fail("Marshal failed", err)
	}
}

func serializeCommand(args []string) {
	fs := flag.NewFlagSet("serialize", flag.ExitOnError)
	common := registerCommonFlags(fs)
	name := fs.String("name", "", "Schema name")

	fs.Parse(args)

	app, err := newApp(common.overrides(), os.Getenv)
	if err != nil {
		fail("Configuration failed", err)
	}
	doc, err := app.readDocument(fs.Arg(0))
	if err != nil {
		fail("Failed to read input", err)
	}
	err = app.serialize(os.Stdout, *name, doc)
	app.reportMetrics()
	if err != nil {
		fail("Serialize failed", err)
	}
}

func validateCommand(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	common := registerCommonFlags(fs)
	verbose := fs.Bool("v", false, "Verbose output")

	fs.Parse(args)

	app, err := newApp(common.overrides(), os.Getenv)
	if err != nil {
		fail("Validation failed", err)
	}
	app.describe(os.Stdout, *verbose)
}

func versionCommand() {
	fmt.Println(mapx.VersionInfo())
}

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	for _, line := range fieldErrorLines(err) {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
	os.Exit(1)
}
