package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/limeview/pkg/lime"
)

type inspectOutput struct {
	Path       string          `json:"path"`
	Size       int64           `json:"size"`
	Version    uint32          `json:"version"`
	MinAddress string          `json:"min_address"`
	MaxAddress string          `json:"max_address"`
	Segments   []segmentOutput `json:"segments"`
}

type segmentOutput struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Offset int64  `json:"offset"`
	Length uint64 `json:"length"`
}

func inspectCmd() *cli.Command {
	var (
		jsonOut   bool
		checkOnly bool
		segLimit  int
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect the segment map of a LiME capture",
		ArgsUsage: "<file.lime>",
		Flags: append(loggingFlags(),
			&cli.BoolFlag{Name: "json", Usage: "emit machine-readable JSON", Destination: &jsonOut},
			&cli.BoolFlag{Name: "check", Usage: "validate the capture and print nothing", Destination: &checkOnly},
			&cli.IntFlag{Name: "segments-limit", Usage: "limit segment listing (0 = no limit)", Value: 50, Destination: &segLimit},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one capture file")
			}
			applyLoggingConfig(c, LoadConfig())
			log := newLogger()

			path := c.Args().First()
			img, err := lime.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			if checkOnly {
				log.Info("capture is valid",
					"path", path,
					"segments", len(img.Segments()),
					"min_address", fmt.Sprintf("0x%x", img.MinAddress()),
					"max_address", fmt.Sprintf("0x%x", img.MaxAddress()))
				return nil
			}

			if jsonOut {
				out := inspectOutput{
					Path:       path,
					Size:       img.Size(),
					Version:    img.Header().Version,
					MinAddress: fmt.Sprintf("0x%x", img.MinAddress()),
					MaxAddress: fmt.Sprintf("0x%x", img.MaxAddress()),
				}
				for _, seg := range img.Segments() {
					out.Segments = append(out.Segments, segmentOutput{
						Start:  fmt.Sprintf("0x%x", seg.Start),
						End:    fmt.Sprintf("0x%x", seg.End()),
						Offset: seg.Offset,
						Length: seg.Length,
					})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			printInspect(img, path, segLimit)
			return nil
		},
	}
}

func printInspect(img *lime.Image, path string, segLimit int) {
	segments := img.Segments()

	fmt.Printf("File: %s\n", path)
	fmt.Printf("LiME v%d | size=%d | segments=%d | addresses=0x%x-0x%x\n",
		img.Header().Version, img.Size(), len(segments), img.MinAddress(), img.MaxAddress())
	fmt.Println()
	fmt.Printf("%-20s %-20s %-12s %s\n", "START", "END", "OFFSET", "LENGTH")

	shown := len(segments)
	if segLimit > 0 && shown > segLimit {
		shown = segLimit
	}
	var prevEnd uint64
	for i, seg := range segments[:shown] {
		if i > 0 && seg.Start > prevEnd+1 {
			fmt.Printf("%-20s %-20s\n", "  (hole)", fmt.Sprintf("0x%x bytes", seg.Start-prevEnd-1))
		}
		fmt.Printf("%-20s %-20s %-12d %d\n",
			fmt.Sprintf("0x%x", seg.Start), fmt.Sprintf("0x%x", seg.End()), seg.Offset, seg.Length)
		prevEnd = seg.End()
	}
	if shown < len(segments) {
		fmt.Printf("... %d more segments (raise --segments-limit)\n", len(segments)-shown)
	}
}
