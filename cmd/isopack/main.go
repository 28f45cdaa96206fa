// Command isopack packs and unpacks ISO8583 messages from the command line.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/mkadit/go-iso8583"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	schemaName string
	verbose    bool
	logger     = zap.NewNop()
)

func newLogger(level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		os.Stderr,
		level,
	)
	return zap.New(core).Named("isopack")
}

// parseLevel reads a level letter as in ISOPACK_LOG=D.
func parseLevel(lvl string) zapcore.Level {
	if lvl == "" {
		return zapcore.WarnLevel
	}
	switch lvl[0] {
	case 'V', 'D':
		return zapcore.DebugLevel
	case 'I':
		return zapcore.InfoLevel
	case 'E':
		return zapcore.ErrorLevel
	}
	return zapcore.WarnLevel
}

// loadPackager resolves --schema: a built-in name or a schema file.
func loadPackager() (iso8583.Packager, error) {
	s, ok := iso8583.BuiltinSchema(schemaName)
	if !ok {
		var e error
		if s, e = iso8583.LoadSchema(schemaName); e != nil {
			return nil, e
		}
	}
	b := iso8583.NewBuilder(iso8583.DefaultRegistry())
	if verbose {
		b.Tracer = iso8583.ZapTracer(logger)
	}
	return b.Build(s)
}

// readInput returns the message given as argument, or read from stdin when
// the argument is absent or "-". Hex input may contain whitespace.
func readInput(c *cli.Context, isHex bool) ([]byte, error) {
	var raw []byte
	if arg := c.Args().First(); arg != "" && arg != "-" {
		raw = []byte(arg)
	} else {
		var e error
		if raw, e = io.ReadAll(os.Stdin); e != nil {
			return nil, e
		}
	}
	if !isHex {
		return raw, nil
	}
	s := strings.Map(func(ch rune) rune {
		if strings.ContainsRune(" \t\r\n:", ch) {
			return -1
		}
		return ch
	}, string(raw))
	return hex.DecodeString(s)
}

func writeOutput(b []byte, isHex bool) {
	if isHex {
		fmt.Println(strings.ToUpper(hex.EncodeToString(b)))
		return
	}
	os.Stdout.Write(b)
}

var app = &cli.App{
	Usage: "Pack and unpack ISO8583 messages.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "schema",
			Value:       "iso87a",
			Usage:       "schema `FILE` (json, yaml, toml or xml), or built-in iso87a / iso87b",
			EnvVars:     []string{"ISOPACK_SCHEMA"},
			Destination: &schemaName,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "trace every field packed or unpacked",
			Destination: &verbose,
		},
	},
	Before: func(c *cli.Context) error {
		level := parseLevel(os.Getenv("ISOPACK_LOG"))
		if verbose {
			level = zapcore.DebugLevel
		}
		logger = newLogger(level)
		return nil
	},
	After: func(c *cli.Context) error {
		logger.Sync()
		return nil
	},
}

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

func main() {
	sort.Sort(cli.CommandsByName(app.Commands))
	e := app.Run(os.Args)
	if e != nil {
		log.Fatal(e)
	}
}
