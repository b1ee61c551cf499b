package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/binyominzeev/leining-app/audio"
	"github.com/binyominzeev/leining-app/beep"
	"github.com/binyominzeev/leining-app/doctor"
	"github.com/binyominzeev/leining-app/encoder"
	"github.com/binyominzeev/leining-app/log"
	"github.com/binyominzeev/leining-app/reading"
	"github.com/binyominzeev/leining-app/shutdown"
	"github.com/binyominzeev/leining-app/transcriber"
)

var version = "dev"

func main() {
	run()
}

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func modeLineText(trans transcriber.Transcriber, stream bool) string {
	label := trans.Name()
	if lang := trans.GetLanguage(); lang != "" {
		label += " (" + lang + ")"
	}
	if stream {
		label += " (stream)"
	}
	return "[" + label + "]"
}

func run() {
	readingsFlag := flag.String("readings", "readings", "Directory of <name>.mp3 + <name>.txt reading pairs")
	widthFlag := flag.Int("width", 40, "Maximum characters per display line")
	markerFlag := flag.String("marker", "", "Marker word that triggers the flash cue")
	langFlag := flag.String("lang", transcriber.DefaultLanguage, "Language code for transcription")
	ignoreNikudFlag := flag.Bool("ignorenikud", true, "Strip vowel points and cantillation before comparison")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	nosoundFlag := flag.Bool("nosound", false, "Disable audio cues")
	serveFlag := flag.String("serve", "", "Run the HTTP practice API on this address (e.g. :8080) instead of the TUI")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	simulateFlag := flag.String("simulate", "", "Replay a WAV file instead of capturing the microphone")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *versionFlag {
		fmt.Printf("leining %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(*readingsFlag))
	}

	if *nosoundFlag {
		beep.Disable()
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	lib := reading.NewLibrary(*readingsFlag)

	if *testFlag {
		runTestMode(*markerFlag, *ignoreNikudFlag)
		return
	}

	trans, initErr := transcriber.New()
	if initErr != nil {
		if *simulateFlag == "" && *serveFlag == "" {
			fmt.Printf("Error: %v\n", initErr)
			os.Exit(1)
		}
		// Simulated runs and the API server can work without a provider
		// key; readings still load and comparisons still score.
		trans = transcriber.NewFakeScript(
			"בראשית",
			"בראשית ברא אלהים",
			"בראשית ברא אלהים את השמים ואת הארץ",
		)
	}
	trans.SetLanguage(*langFlag)
	streamEnabled := trans.Name() == "deepgram"

	if *serveFlag != "" {
		if err := runServer(*serveFlag, lib, trans, serverOptions{
			Marker:      *markerFlag,
			IgnoreMarks: *ignoreNikudFlag,
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var ctx audio.Context
	if *simulateFlag != "" {
		ctx, err = audio.NewFakeContext(*simulateFlag, true)
	} else {
		ctx, err = audio.NewContext()
	}
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	}
	captureDevice, err := ctx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Printf("Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer captureDevice.Close()

	rec := newRecorder(captureDevice, trans, streamEnabled)

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	go beep.Init()

	p := NewTUIProgram(lib, rec, tuiOptions{
		Marker:      *markerFlag,
		IgnoreMarks: *ignoreNikudFlag,
		LineChars:   *widthFlag,
		Provider:    modeLineText(trans, streamEnabled),
		Device:      deviceLineText(selectedDevice),
	})
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()

	log.Info("recording_device: " + captureDevice.DeviceName())

	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		os.Exit(1)
	}
	gracefulShutdown()
}
