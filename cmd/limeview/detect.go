package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/limeview/pkg/lime"
)

type detectOutput struct {
	Path     string `json:"path"`
	Accepted bool   `json:"accepted"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

func detectCmd() *cli.Command {
	var jsonOut bool

	return &cli.Command{
		Name:      "detect",
		Usage:     "Probe files for the LiME capture format",
		ArgsUsage: "<file>...",
		Flags: append(loggingFlags(),
			&cli.BoolFlag{Name: "json", Usage: "emit machine-readable JSON", Destination: &jsonOut},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("expected at least one file")
			}

			results := make([]detectOutput, 0, c.Args().Len())
			accepted := 0
			for _, path := range c.Args().Slice() {
				out := detectOutput{Path: path}
				if hdr, ok := probeFile(path); ok {
					out.Accepted = true
					out.Start = fmt.Sprintf("0x%x", hdr.Start)
					out.End = fmt.Sprintf("0x%x", hdr.End)
					accepted++
				}
				results = append(results, out)
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Accepted {
						fmt.Printf("%s: LiME capture, first segment %s-%s\n", r.Path, r.Start, r.End)
					} else {
						fmt.Printf("%s: not a LiME capture\n", r.Path)
					}
				}
			}

			if accepted == 0 {
				return fmt.Errorf("no LiME captures detected")
			}
			return nil
		},
	}
}

func probeFile(path string) (lime.Header, bool) {
	f, err := os.Open(path)
	if err != nil {
		return lime.Header{}, false
	}
	defer func() { _ = f.Close() }()
	return lime.Probe(f)
}
