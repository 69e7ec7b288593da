// sicdinfo inspects complex SAR raster files.
//
// Usage:
//
//	sicdinfo [-x] <filename> [<filename> ...]
//
// Options:
//
//	-x	Dump the embedded metadata as XML.
//
// Exit codes:
//
//	0: All files inspected
//	1: One or more files could not be read
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-sicd/blockfile"
	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

func main() {
	dumpXML := flag.Bool("x", false, "dump the embedded metadata as XML")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: sicdinfo [-x] <filename> [<filename> ...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := inspect(path, *dumpXML); err != nil {
			fmt.Fprintf(os.Stderr, "sicdinfo: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(path string, dumpXML bool) error {
	r, err := blockfile.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	size := r.DataSize()
	fmt.Printf("%s:\n", path)
	fmt.Printf("  size:       %d rows x %d cols\n", size.Rows, size.Cols)

	meta := r.Meta()
	if meta == nil {
		fmt.Println("  metadata:   none")
		return nil
	}
	if meta.ImageData != nil {
		fmt.Printf("  pixel type: %s\n", meta.ImageData.PixelType)
	}
	if ci := meta.CollectionInfo; ci != nil {
		if ci.CollectorName != "" {
			fmt.Printf("  collector:  %s\n", ci.CollectorName)
		}
		if ci.CoreName != "" {
			fmt.Printf("  core name:  %s\n", ci.CoreName)
		}
	}
	if ic := meta.ImageCreation; ic != nil {
		if ic.Application != "" {
			fmt.Printf("  created by: %s\n", ic.Application)
		}
		if !ic.DateTime.IsZero() {
			fmt.Printf("  created at: %s\n", ic.DateTime.Format("2006-01-02 15:04:05 MST"))
		}
	}
	if dumpXML {
		xml, err := sicdmeta.Marshal(meta)
		if err != nil {
			return err
		}
		fmt.Println(string(xml))
	}
	return nil
}
