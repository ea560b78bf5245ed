package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/img2wav/internal/wavio"
	"github.com/himanishpuri/img2wav/pkg/img2wav"
	"github.com/himanishpuri/img2wav/pkg/img2wav/storage"
	"github.com/himanishpuri/img2wav/pkg/logger"
)

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "render":
		handleRender()
	case "probe":
		handleProbe()
	case "jobs":
		handleJobs()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _                ___
(_)_ __ ___  __ _|_  )_ __ ____ ___ __
| | '_ ' _ \/ _' |/ /| '_ \ V  V / _' \
|_|_| |_| |_\__, /___|_.__/\_/\_/\__,_|
            |___/

     Image to Spectrogram Audio
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  img2wav render <image.png|jpg> -o <out.wav> [options]")
	fmt.Println("  img2wav probe <file.wav>")
	fmt.Println("  img2wav jobs [-db <path>] [-delete <id>]")
	fmt.Println()
	fmt.Println("Run 'img2wav render -h' for the full option list.")
}

func handleRender() {
	log := logger.GetLogger()

	args := os.Args[2:]
	var imagePath string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && imagePath == "" {
			imagePath = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	defaults := img2wav.DefaultParams()

	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	outPath := renderCmd.String("o", "out.wav", "Output WAV path")
	fftSize := renderCmd.Int("fft", defaults.FFTSize, "FFT size (1024, 2048, 4096)")
	hopDiv := renderCmd.Int("hop-div", 4, "Hop divisor: hop = fft/N (2, 4, 8)")
	rate := renderCmd.Int("rate", defaults.SampleRate, "Sample rate (44100, 48000, 96000)")
	scale := renderCmd.String("scale", "linear", "Frequency scale (linear, log)")
	minFreq := renderCmd.Float64("min-freq", defaults.MinFreqHz, "Minimum frequency in Hz (log scale)")
	maxFreq := renderCmd.Float64("max-freq", defaults.MaxFreqHz, "Maximum frequency in Hz (log scale)")
	minDb := renderCmd.Float64("min-db", defaults.MinDb, "Magnitude floor in dB [-120, -20]")
	gamma := renderCmd.Float64("gamma", defaults.Gamma, "Pixel gamma [0.2, 4.0]")
	iters := renderCmd.Int("iters", defaults.Iterations, "Griffin-Lim iterations [16, 256]")
	normTarget := renderCmd.Float64("normalize", defaults.NormalizeTargetDbfs, "Peak normalization target in dBFS [-6, 0]")
	gain := renderCmd.Float64("gain", defaults.OutputGainDb, "Output gain in dB [-24, 12]")
	noLimiter := renderCmd.Bool("no-limiter", false, "Disable the safety limiter")
	stereo := renderCmd.Bool("stereo", false, "Write stereo (L/R duplicate)")
	depth := renderCmd.String("depth", "16", "Bit depth: 16, 24 or 32f")
	seed := renderCmd.Int64("seed", 0, "Phase seed for reproducible output (0 = random)")
	dbPath := renderCmd.String("db", "", "Record the render in this job-history database")

	renderCmd.Parse(flagArgs)

	if imagePath == "" {
		fmt.Println("Error: image file path required")
		fmt.Println("Usage: img2wav render <image> -o <out.wav> [options]")
		os.Exit(1)
	}

	switch *hopDiv {
	case 2, 4, 8:
	default:
		fmt.Printf("Error: hop divisor %d not in {2, 4, 8}\n", *hopDiv)
		os.Exit(1)
	}

	params := defaults
	params.FFTSize = *fftSize
	params.HopSize = *fftSize / *hopDiv
	params.SampleRate = *rate
	params.MinFreqHz = *minFreq
	params.MaxFreqHz = *maxFreq
	params.MinDb = *minDb
	params.Gamma = *gamma
	params.Iterations = *iters
	params.NormalizeTargetDbfs = *normTarget
	params.OutputGainDb = *gain
	params.UseLimiter = !*noLimiter
	params.Stereo = *stereo
	params.Seed = *seed

	switch strings.ToLower(*scale) {
	case "linear":
		params.FreqScale = img2wav.Linear
	case "log", "logarithmic":
		params.FreqScale = img2wav.Logarithmic
	default:
		fmt.Printf("Error: unknown scale %q (use linear or log)\n", *scale)
		os.Exit(1)
	}

	switch *depth {
	case "16":
		params.BitDepth = img2wav.Int16
	case "24":
		params.BitDepth = img2wav.Int24
	case "32f", "32":
		params.BitDepth = img2wav.Float32
	default:
		fmt.Printf("Error: unknown bit depth %q (use 16, 24 or 32f)\n", *depth)
		os.Exit(1)
	}

	var opts []img2wav.Option
	if *dbPath != "" {
		store, err := storage.NewSQLiteStore(*dbPath)
		if err != nil {
			fmt.Printf("❌ Failed to open job history: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, img2wav.WithStore(store))
	}

	svc, err := img2wav.NewService(opts...)
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	// Ctrl-C cancels the reconstruction and keeps nothing on disk.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🎨 Rendering %s -> %s\n", imagePath, *outPath)

	result, err := svc.RenderFile(ctx, imagePath, *outPath, params, func(current, total int) {
		fmt.Printf("\r   Progress: %3d%%", current*100/total)
	})
	fmt.Println()

	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("⚠️  Render cancelled")
			os.Exit(130)
		}
		fmt.Printf("❌ Render failed: %v\n", err)
		log.Errorf("render failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Wrote %s\n", result.OutputPath)
	fmt.Printf("   %d frames x %d bins, %d samples, %d channel(s)\n",
		result.Frames, result.Bins, result.Samples, result.Channels)
	fmt.Printf("   %s in %s\n", humanize.Bytes(uint64(result.OutputBytes)), result.Elapsed.Round(10*time.Millisecond))
}

func handleProbe() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: img2wav probe <file.wav>")
		os.Exit(1)
	}
	path := os.Args[2]

	audio, err := wavio.Decode(path)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	info, _ := os.Stat(path)
	frames := len(audio.Samples) / int(audio.Format.NumChannels)
	seconds := float64(frames) / float64(audio.Format.SampleRate)

	fmt.Printf("📄 %s\n", path)
	if info != nil {
		fmt.Printf("   Size:        %s\n", humanize.Bytes(uint64(info.Size())))
	}
	fmt.Printf("   Format:      %d (%s)\n", audio.Format.AudioFormat, formatName(audio.Format.AudioFormat))
	fmt.Printf("   Channels:    %d\n", audio.Format.NumChannels)
	fmt.Printf("   Sample rate: %d Hz\n", audio.Format.SampleRate)
	fmt.Printf("   Bit depth:   %d\n", audio.Format.BitsPerSample)
	fmt.Printf("   Frames:      %d (%.2f s)\n", frames, seconds)
}

func formatName(tag uint16) string {
	switch tag {
	case 1:
		return "PCM"
	case 3:
		return "IEEE float"
	default:
		return "unknown"
	}
}

func handleJobs() {
	jobsCmd := flag.NewFlagSet("jobs", flag.ExitOnError)
	dbPath := jobsCmd.String("db", storage.DefaultDBFile, "Job-history database path")
	deleteID := jobsCmd.String("delete", "", "Delete the job with this ID")
	jobsCmd.Parse(os.Args[2:])

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("❌ Failed to open job history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *deleteID != "" {
		if err := store.DeleteJob(*deleteID); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("🗑️  Deleted job %s\n", *deleteID)
		return
	}

	jobs, err := store.ListJobs()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	if len(jobs) == 0 {
		fmt.Println("No render jobs recorded.")
		return
	}

	fmt.Printf("%-36s  %-20s  %-10s  %-9s  %s\n", "ID", "CREATED", "IMAGE", "STATUS", "OUTPUT")
	for _, job := range jobs {
		fmt.Printf("%-36s  %-20s  %-10s  %-9s  %s\n",
			job.ID,
			job.CreatedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%dx%d", job.ImageWidth, job.ImageHeight),
			job.Status,
			job.OutputPath)
	}
}
