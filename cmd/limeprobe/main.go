// limeprobe reports whether files begin with a LiME capture header.
// It exits 0 when every argument is accepted and 1 otherwise, so it can
// gate shell pipelines that sort unknown evidence files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/samcharles93/limeview/pkg/lime"
)

func main() {
	quiet := flag.Bool("q", false, "suppress per-file output")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: limeprobe [-q] <file>...")
		os.Exit(2)
	}

	allAccepted := true
	for _, path := range flag.Args() {
		hdr, ok := probe(path)
		if !ok {
			allAccepted = false
			if !*quiet {
				fmt.Printf("%s: no\n", path)
			}
			continue
		}
		if !*quiet {
			fmt.Printf("%s: yes (first segment 0x%x-0x%x)\n", path, hdr.Start, hdr.End)
		}
	}

	if !allAccepted {
		os.Exit(1)
	}
}

func probe(path string) (lime.Header, bool) {
	f, err := os.Open(path)
	if err != nil {
		return lime.Header{}, false
	}
	defer func() { _ = f.Close() }()
	return lime.Probe(f)
}
