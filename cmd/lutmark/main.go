// lutmark — LUT inspection and watermark rendering for camera asset bundles.
//
// Usage:
//
//	lutmark lut-info -assets <dir> <key>...
//	lutmark export -assets <dir> -o <file.cube> <key>
//	lutmark apply -assets <dir> -lut <key> -in <photo> -o <file.png>
//	lutmark watermark -assets <dir> -template <key> [options] -in <photo> -o <file.png>
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	_ "image/jpeg"

	"github.com/vaelin/lutmark/pkg/assets"
	"github.com/vaelin/lutmark/pkg/colorcube"
	"github.com/vaelin/lutmark/pkg/lutdecode"
	"github.com/vaelin/lutmark/pkg/watermark"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "lut-info":
		err = runLutInfo(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "apply":
		err = runApply(os.Args[2:])
	case "watermark":
		err = runWatermark(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}
}

func runLutInfo(args []string) error {
	fs := flag.NewFlagSet("lut-info", flag.ExitOnError)
	assetDir := fs.String("assets", ".", "Asset bundle directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("lut-info: no LUT keys given")
	}

	decoder := lutdecode.New(assets.NewDir(*assetDir))
	cache := colorcube.NewCache(decoder.DecodeFunc(), 0)
	ctx := context.Background()

	for _, key := range fs.Args() {
		cube, err := cache.Get(ctx, key)
		if err != nil {
			fmt.Printf("%-40s invalid: %v\n", key, err)
			continue
		}
		fmt.Printf("%-40s size %d (%d samples)\n", key, cube.Size, len(cube.Samples))
	}
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	assetDir := fs.String("assets", ".", "Asset bundle directory")
	output := fs.String("o", "", "Output .cube path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *output == "" {
		return fmt.Errorf("export: need exactly one LUT key and -o")
	}

	key := fs.Arg(0)
	cube, err := lutdecode.New(assets.NewDir(*assetDir)).Decode(key)
	if err != nil {
		return err
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("create %s: %w", *output, err)
	}
	defer f.Close()
	return colorcube.WriteCube(f, cube, key)
}

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	assetDir := fs.String("assets", ".", "Asset bundle directory")
	lutKey := fs.String("lut", "", "LUT asset key")
	input := fs.String("in", "", "Input photo path")
	output := fs.String("o", "", "Output PNG path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lutKey == "" || *input == "" || *output == "" {
		return fmt.Errorf("apply: -lut, -in and -o are required")
	}

	cube, err := lutdecode.New(assets.NewDir(*assetDir)).Decode(*lutKey)
	if err != nil {
		return err
	}

	photo, err := loadImage(*input)
	if err != nil {
		return err
	}

	filtered, err := cube.Apply(context.Background(), photo)
	if err != nil {
		return err
	}
	return writePNG(*output, filtered)
}

func runWatermark(args []string) error {
	fs := flag.NewFlagSet("watermark", flag.ExitOnError)
	assetDir := fs.String("assets", ".", "Asset bundle directory")
	templateKey := fs.String("template", "", "Template asset key")
	format := fs.String("format", "vivo", "Template format: vivo or tecno")
	mode := fs.String("mode", "", "Tecno mode name")
	landscape := fs.Bool("landscape", false, "Tecno: select the landscape layout")
	input := fs.String("in", "", "Input photo path")
	output := fs.String("o", "", "Output PNG path")
	device := fs.String("device", "", "Device name")
	lens := fs.String("lens", "", "Lens info string")
	timeText := fs.String("time", "", "Timestamp text")
	location := fs.String("location", "", "Location text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templateKey == "" || *input == "" || *output == "" {
		return fmt.Errorf("watermark: -template, -in and -o are required")
	}

	provider := assets.NewDir(*assetDir)
	data, err := provider.Load(*templateKey)
	if err != nil {
		return err
	}

	photo, err := loadImage(*input)
	if err != nil {
		return err
	}
	bounds := photo.Bounds()

	fonts, err := watermark.NewFontManager(provider)
	if err != nil {
		return err
	}
	resolver := &watermark.Resolver{Measure: fonts}
	content := watermark.RuntimeContent{
		DeviceName:   *device,
		LensInfo:     *lens,
		TimeText:     *timeText,
		LocationText: *location,
	}

	var layout *watermark.Layout
	switch strings.ToLower(*format) {
	case "vivo":
		tpl, err := watermark.ParseVivo(data)
		if err != nil {
			return err
		}
		layout = resolver.ResolveVivo(tpl, content, bounds.Dx(), bounds.Dy())
	case "tecno":
		configs, err := watermark.ParseTecnoModes(data)
		if err != nil {
			return err
		}
		orientation := watermark.Portrait
		if *landscape {
			orientation = watermark.Landscape
		}
		cfg, err := watermark.ModeFor(configs, *mode, orientation)
		if err != nil {
			return err
		}
		layout = resolver.ResolveTecno(cfg, content, bounds.Dx(), bounds.Dy())
	default:
		return fmt.Errorf("watermark: unknown format %q", *format)
	}

	compositor := watermark.NewCompositor(provider, fonts)
	img, warnings, err := compositor.Compose(context.Background(), photo, layout)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return writePNG(*output, img)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`lutmark — LUT inspection and watermark rendering

Commands:
  lut-info   -assets <dir> <key>...          Decode LUTs and print their sizes
  export     -assets <dir> -o <out.cube> <key>  Re-emit a LUT as .cube text
  apply      -assets <dir> -lut <key> -in <photo> -o <out.png>
  watermark  -assets <dir> -template <key> -in <photo> -o <out.png>
             [-format vivo|tecno] [-mode <name>] [-landscape]
             [-device <s>] [-lens <s>] [-time <s>] [-location <s>]`)
}
