// quicklook renders a magnitude preview PNG from a complex SAR raster.
//
// Usage:
//
//	quicklook [-config quicklook.yaml] [flags] <input> <output.png>
//
// The input is a block container (the default) or a headerless flat file
// described by the -rows/-cols/-pixel flags. The full image is read with a
// decimating stride chosen so the longer output edge stays within the
// configured maximum, remapped to 8-bit, and colored.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fogleman/gg"
	"gopkg.in/yaml.v3"

	"github.com/mrjoshuak/go-sicd/blockfile"
	"github.com/mrjoshuak/go-sicd/rawfile"
	"github.com/mrjoshuak/go-sicd/remap"
	"github.com/mrjoshuak/go-sicd/sicd"
	"github.com/mrjoshuak/go-sicd/sicdmeta"
)

// Config selects how the preview is produced.
type Config struct {
	// Remap is "density", "log" or "linear".
	Remap string `yaml:"remap"`

	// Colormap is "gray", "viridis" or "hot".
	Colormap string `yaml:"colormap"`

	// MaxEdge bounds the longer edge of the rendered preview.
	MaxEdge int `yaml:"max_edge"`

	// Flat describes headerless inputs; ignored for block containers.
	Flat FlatConfig `yaml:"flat"`
}

// FlatConfig carries the layout of a headerless flat input.
type FlatConfig struct {
	Rows      int    `yaml:"rows"`
	Cols      int    `yaml:"cols"`
	PixelType string `yaml:"pixel_type"`
}

func defaultConfig() Config {
	return Config{
		Remap:    "density",
		Colormap: "gray",
		MaxEdge:  1024,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.MaxEdge <= 0 {
		cfg.MaxEdge = 1024
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	remapName := flag.String("remap", "", "remap: density, log or linear")
	cmapName := flag.String("colormap", "", "colormap: gray, viridis or hot")
	maxEdge := flag.Int("max-edge", 0, "longest output edge in pixels")
	flat := flag.Bool("flat", false, "input is a headerless flat file")
	rows := flag.Int("rows", 0, "flat input rows")
	cols := flag.Int("cols", 0, "flat input cols")
	pixel := flag.String("pixel", sicdmeta.RE32FIM32F, "flat input pixel type")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: quicklook [flags] <input> <output.png>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *remapName, *cmapName, *maxEdge,
		*flat, *rows, *cols, *pixel, flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "quicklook: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, remapName, cmapName string, maxEdge int,
	flat bool, rows, cols int, pixel, input, output string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	// Flags override the config file.
	if remapName != "" {
		cfg.Remap = remapName
	}
	if cmapName != "" {
		cfg.Colormap = cmapName
	}
	if maxEdge > 0 {
		cfg.MaxEdge = maxEdge
	}
	if flat {
		cfg.Flat = FlatConfig{Rows: rows, Cols: cols, PixelType: pixel}
	}

	remapFn, err := remap.Lookup(cfg.Remap)
	if err != nil {
		return err
	}
	cmap, err := remap.LookupColormap(cfg.Colormap)
	if err != nil {
		return err
	}

	reader, closer, err := openReader(input, flat, cfg.Flat)
	if err != nil {
		return err
	}
	defer closer.Close()

	size := reader.DataSize()
	step := 1
	for (size.Rows+step-1)/step > cfg.MaxEdge || (size.Cols+step-1)/step > cfg.MaxEdge {
		step++
	}
	data, err := reader.Read(sicd.Stride(sicd.Unset, sicd.Unset, step),
		sicd.Stride(sicd.Unset, sicd.Unset, step), 0)
	if err != nil {
		return err
	}

	outRows, outCols := data.Dims()
	if outRows == 0 || outCols == 0 {
		return errors.New("input has no pixels")
	}
	display := remapFn(data)

	dc := gg.NewContext(outCols, outRows)
	for y := 0; y < outRows; y++ {
		for x := 0; x < outCols; x++ {
			dc.SetColor(cmap.At(display[y*outCols+x]))
			dc.SetPixel(x, y)
		}
	}
	return dc.SavePNG(output)
}

func openReader(input string, flat bool, layout FlatConfig) (*sicd.Reader, io.Closer, error) {
	if flat {
		r, err := rawfile.OpenReader(input, rawfile.Layout{
			Rows:      layout.Rows,
			Cols:      layout.Cols,
			PixelType: layout.PixelType,
		})
		if err != nil {
			return nil, nil, err
		}
		chipper, err := r.Chipper(sicd.Symmetry{})
		if err != nil {
			r.Close()
			return nil, nil, err
		}
		reader, err := sicd.NewReader(nil, chipper)
		if err != nil {
			r.Close()
			return nil, nil, err
		}
		return reader, r, nil
	}

	r, err := blockfile.Open(input)
	if err != nil {
		return nil, nil, err
	}
	chipper, err := r.Chipper(sicd.Symmetry{})
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	reader, err := sicd.NewReader(r.Meta(), chipper)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return reader, r, nil
}
