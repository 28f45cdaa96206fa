package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mkadit/go-iso8583"
	"github.com/mkadit/go-iso8583/tlv"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var hexFlag = &cli.BoolFlag{
	Name:  "hex",
	Value: true,
	Usage: "message is written as hexadecimal",
}

func init() {
	defineCommand(&cli.Command{
		Name:      "unpack",
		Usage:     "Decode a message and print its fields",
		ArgsUsage: "[MESSAGE]",
		Flags: []cli.Flag{
			hexFlag,
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "output `FORMAT`: text, json or cbor",
			},
		},
		Action: func(c *cli.Context) error {
			p, e := loadPackager()
			if e != nil {
				return e
			}
			raw, e := readInput(c, c.Bool("hex"))
			if e != nil {
				return e
			}
			fs := p.NewFieldSet()
			n, e := p.Unpack(fs, raw)
			e = multierr.Append(e, writeFieldSet(os.Stdout, fs, c.String("output")))
			if e != nil {
				return e
			}
			if n < len(raw) {
				logger.Warn("trailing bytes", zap.Int("consumed", n), zap.Int("length", len(raw)))
			}
			return nil
		},
	})
}

func init() {
	defineCommand(&cli.Command{
		Name:  "pack",
		Usage: "Encode a message from field values",
		Flags: []cli.Flag{
			hexFlag,
			&cli.StringSliceFlag{
				Name:     "field",
				Aliases:  []string{"f"},
				Usage:    "field `ID=VALUE` (or TAG=VALUE for tagged schemas); binary values in hex",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			p, e := loadPackager()
			if e != nil {
				return e
			}
			fs := p.NewFieldSet()
			for _, kv := range c.StringSlice("field") {
				e = multierr.Append(e, setField(p, fs, kv))
			}
			if e != nil {
				return e
			}
			b, e := p.Pack(fs)
			if e != nil {
				return e
			}
			writeOutput(b, c.Bool("hex"))
			return nil
		},
	})
}

// setField parses one ID=VALUE argument into fs.
func setField(p iso8583.Packager, fs *iso8583.FieldSet, kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("field %q: want ID=VALUE", kv)
	}
	var codec iso8583.FieldCodec
	switch p := p.(type) {
	case *iso8583.MessagePackager:
		id, e := strconv.Atoi(key)
		if e != nil {
			return fmt.Errorf("field %q: %w", kv, e)
		}
		if codec = p.FieldCodec(id); codec == nil {
			return fmt.Errorf("field %d: %w", id, iso8583.ErrNoCodec)
		}
		v, e := fieldValue(codec, value)
		if e != nil {
			return fmt.Errorf("field %d: %w", id, e)
		}
		return fs.Set(id, v)
	case *iso8583.TaggedPackager:
		var e error
		if codec, e = p.Codec(key); e != nil {
			return e
		}
		v, e := fieldValue(codec, value)
		if e != nil {
			return fmt.Errorf("tag %s: %w", key, e)
		}
		return fs.AppendTag(key, v)
	}
	return fmt.Errorf("%T: unsupported packager", p)
}

func fieldValue(codec iso8583.FieldCodec, value string) (iso8583.Value, error) {
	switch codec.(type) {
	case *iso8583.BinaryCodec:
		b, e := hex.DecodeString(value)
		if e != nil {
			return iso8583.Value{}, e
		}
		return iso8583.Binary(b), nil
	case *iso8583.CompositeCodec:
		return iso8583.Value{}, errors.New("composite fields cannot be set from the command line")
	}
	return iso8583.Text(value), nil
}

func init() {
	var tagSize, lengthSize int
	defineCommand(&cli.Command{
		Name:      "tlv",
		Usage:     "Decode a BER-TLV list such as ICC data",
		ArgsUsage: "[DATA]",
		Flags: []cli.Flag{
			hexFlag,
			&cli.IntFlag{
				Name:        "tag-size",
				Usage:       "fixed tag size in bytes, 0 for BER tags",
				Destination: &tagSize,
			},
			&cli.IntFlag{
				Name:        "length-size",
				Usage:       "fixed length size in bytes, 0 for BER lengths",
				Destination: &lengthSize,
			},
		},
		Action: func(c *cli.Context) error {
			raw, e := readInput(c, c.Bool("hex"))
			if e != nil {
				return e
			}
			l := tlv.NewList(tlv.WithTagSize(tagSize), tlv.WithLengthSize(lengthSize))
			e = l.Unpack(raw)
			for _, entry := range l.Entries() {
				fmt.Printf("%X: %s\n", entry.Tag, entry.Hex())
			}
			return e
		},
	})
}

func init() {
	defineCommand(&cli.Command{
		Name:  "schema",
		Usage: "Inspect packager schemas",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Build a schema file and report every problem",
				ArgsUsage: "FILE...",
				Action: func(c *cli.Context) error {
					var errs error
					for _, path := range c.Args().Slice() {
						s, e := iso8583.LoadSchema(path)
						if e == nil {
							_, e = iso8583.NewBuilder(nil).Build(s)
						}
						if e != nil {
							errs = multierr.Append(errs, e)
							continue
						}
						logger.Info("schema ok", zap.String("path", path))
					}
					for _, e := range multierr.Errors(errs) {
						fmt.Fprintln(os.Stderr, e)
					}
					if errs != nil {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
			{
				Name:  "types",
				Usage: "List the built-in field types",
				Action: func(c *cli.Context) error {
					for _, name := range iso8583.DefaultRegistry().Names() {
						fmt.Println(name)
					}
					return nil
				},
			},
		},
	})
}
