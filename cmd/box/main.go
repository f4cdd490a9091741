// Command box is a small inspection and creation tool for box archives: a
// subcommand name followed by subcommand-specific arguments.
package main

import (
	"fmt"
	"os"

	"github.com/KarpelesLab/box"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = cmdCreate(os.Args[2:])
	case "ls":
		err = cmdList(os.Args[2:])
	case "cat":
		err = cmdCat(os.Args[2:])
	case "info":
		err = cmdInfo(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "box: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: box <create|ls|cat|info> [args...]")
}

func cmdCreate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: box create <archive> <file> [file...]")
	}
	out, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer out.Close()

	var sources []box.NamedSource
	for _, path := range args[1:] {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		sources = append(sources, box.NamedSource{Name: path, Src: f})
	}

	a := box.NewOneEntryPerStream(sources, func() *box.FilterChain {
		return box.NewFilterChain(box.NewDeflateFilterBuilder(0, 0))
	})
	return a.Write(out, box.WithIntegrityChecksum(true))
}

func cmdList(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: box ls <archive>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := box.Read(box.NewFileSource(f))
	if err != nil {
		return err
	}
	for _, e := range a.Entries {
		fmt.Printf("%10d %s\n", e.OriginalSize, e.Name)
	}
	return nil
}

func cmdCat(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: box cat <archive> <entry>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := box.Read(box.NewFileSource(f))
	if err != nil {
		return err
	}
	for _, e := range a.Entries {
		if e.Name != args[1] {
			continue
		}
		h := box.NewArchiveReadHandle(box.NewFileSource(f), a, e)
		src, err := h.Source(true)
		if err != nil {
			return err
		}
		buf := make([]byte, 32*1024)
		for {
			n, rerr := src.Read(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if rerr != nil {
				break
			}
		}
		return nil
	}
	return fmt.Errorf("no such entry: %s", args[1])
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: box info <archive>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := box.Read(box.NewFileSource(f))
	if err != nil {
		return err
	}
	fmt.Printf("entries: %d\n", len(a.Entries))
	fmt.Printf("streams: %d\n", len(a.Streams))
	fmt.Printf("groups:  %d\n", len(a.Groups))
	for i, s := range a.Streams {
		fmt.Printf("  stream %d: %d entries, %d bytes, seekable=%v\n", i, len(s.Entries), s.Length, s.Seekable)
	}
	return nil
}
