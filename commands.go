package main

import (
	"dsss-steganography/audio"
	"dsss-steganography/config"
	"dsss-steganography/stego"
	"flag"
	"fmt"
	"io"
	"log"
)

// dsssFlags registers the protocol flags shared by the sub-commands. Unset
// flags keep the configured values.
func dsssFlags(fs *flag.FlagSet, cfg *config.Config, withWeight bool) (seed *int64, build func() (*stego.DSSS, error)) {
	seed = fs.Int64("seed", 0, "PN sequence seed, the shared key")
	sf := fs.Int("sf", cfg.DSSS.SpreadingFactor, "spreading factor (chips per bit)")
	var weight *float64
	if withWeight {
		weight = fs.Float64("weight", cfg.DSSS.StrengthWeight, "strength weight (peak amplitude divisor)")
	}

	build = func() (*stego.DSSS, error) {
		dsssConfig := cfg.DSSSConfig()
		dsssConfig.SpreadingFactor = *sf
		if weight != nil {
			dsssConfig.StrengthWeight = *weight
		}
		return stego.NewDSSS(dsssConfig)
	}
	return seed, build
}

func runEmbed(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	seed, build := dsssFlags(fs, cfg, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("embed needs <in> <out.wav> <message>")
	}
	inFile, outFile, message := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	dsss, err := build()
	if err != nil {
		return err
	}

	carrier, metadata, err := audio.DecodeFile(inFile)
	if err != nil {
		return err
	}

	stegoSignal, err := dsss.Embed(carrier, message, *seed)
	if err != nil {
		return err
	}

	outDepth := audio.OutputBitDepth(metadata.BitDepth, cfg.Output.BitDepth)
	if n := audio.CountClipped(stegoSignal, metadata.BitDepth, outDepth, dsss.PayloadLen(message)); n > 0 {
		log.Printf("Warning: %d payload samples clip at %d bits, extraction may fail", n, outDepth)
	}
	if err := audio.WriteWAVFile(outFile, stegoSignal, metadata, cfg.Output.BitDepth); err != nil {
		return err
	}

	psnr := audio.CalculatePSNR(carrier, stegoSignal, audio.FullScale(metadata.BitDepth))
	if !audio.ValidatePSNR(psnr, cfg.Quality.PSNRThreshold) {
		log.Printf("Warning: PSNR %.2f dB is below threshold %.2f dB, the message may be audible", psnr, cfg.Quality.PSNRThreshold)
	}

	fmt.Fprintf(out, "embedded %d bytes into %s (strength %v, PSNR %.2f dB)\n",
		len(message), outFile, dsss.StrengthFactor(carrier), psnr)
	return nil
}

func runExtract(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	seed, build := dsssFlags(fs, cfg, false)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("extract needs <in>")
	}

	dsss, err := build()
	if err != nil {
		return err
	}

	signal, _, err := audio.DecodeFile(fs.Arg(0))
	if err != nil {
		return err
	}

	message, err := dsss.Extract(signal, *seed)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, message)
	return nil
}

func runCapacity(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("capacity", flag.ContinueOnError)
	_, build := dsssFlags(fs, cfg, false)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("capacity needs <in>")
	}

	dsss, err := build()
	if err != nil {
		return err
	}

	carrier, metadata, err := audio.DecodeFile(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d samples x %d channels, %.2fs, spreading factor %d -> %d bytes\n",
		fs.Arg(0), carrier.Len(), carrier.NumChannels(), metadata.Duration,
		dsss.SpreadingFactor(), dsss.Capacity(carrier.Len()))
	return nil
}
