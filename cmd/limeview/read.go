package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/limeview/pkg/lime"
)

func readCmd() *cli.Command {
	var (
		addrStr  string
		length   int64
		zeroFill bool
		raw      bool
	)

	return &cli.Command{
		Name:      "read",
		Usage:     "Read a range of the captured address space",
		ArgsUsage: "<file.lime>",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Usage:       "start address (decimal or 0x hex)",
				Required:    true,
				Destination: &addrStr,
			},
			&cli.Int64Flag{
				Name:        "length",
				Aliases:     []string{"n"},
				Usage:       "number of bytes to read",
				Value:       256,
				Destination: &length,
			},
			&cli.BoolFlag{
				Name:        "zero-fill",
				Usage:       "read holes in the address space as zero bytes",
				Destination: &zeroFill,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "write raw bytes to stdout instead of a hex dump",
				Destination: &raw,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one capture file")
			}
			cfg := LoadConfig()
			applyLoggingConfig(c, cfg)
			applyReadConfig(c, cfg, &zeroFill)

			addr, err := strconv.ParseUint(addrStr, 0, 64)
			if err != nil {
				return fmt.Errorf("addr: %w", err)
			}
			if length <= 0 {
				return fmt.Errorf("length must be positive")
			}

			img, err := lime.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			p := make([]byte, length)
			if zeroFill {
				_, err = img.ReadAtZero(p, addr)
			} else {
				_, err = img.ReadAt(p, addr)
			}
			if err != nil {
				return err
			}

			if raw {
				_, err = os.Stdout.Write(p)
				return err
			}
			fmt.Print(hex.Dump(p))
			return nil
		},
	}
}
