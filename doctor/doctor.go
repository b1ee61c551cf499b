// Package doctor runs interactive diagnostics: the readings library,
// the microphone, and the transcription provider.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/binyominzeev/leining-app/audio"
	"github.com/binyominzeev/leining-app/encoder"
	"github.com/binyominzeev/leining-app/reading"
	"github.com/binyominzeev/leining-app/transcriber"
)

// Run executes interactive diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(readingsDir string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("leining doctor - interactive system diagnostics")
	fmt.Println("================================================")

	allPass := true

	if !checkReadings(readingsDir) {
		allPass = false
	}
	if !checkProviderKey() {
		allPass = false
	}
	if allPass && !checkMicAndTranscription() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

func checkReadings(dir string) bool {
	fmt.Println()
	fmt.Println("[1/3] Readings library")

	lib := reading.NewLibrary(dir)
	entries, err := lib.Scan()
	if err != nil {
		fmt.Printf("  FAIL: cannot scan %s: %v\n", dir, err)
		return false
	}
	if len(entries) == 0 {
		fmt.Printf("  FAIL: no mp3/txt pairs found in %s\n", dir)
		fmt.Println("  Each reading needs <name>.mp3 and <name>.txt side by side.")
		return false
	}

	fmt.Printf("  Found %d reading(s):\n", len(entries))
	for _, e := range entries {
		fmt.Printf("    %s\n", e.Name)
	}

	r, err := lib.Load(entries[0].Name)
	if err != nil {
		fmt.Printf("  FAIL: cannot load %q: %v\n", entries[0].Name, err)
		return false
	}
	if r.AudioSeconds <= 0 {
		fmt.Printf("  FAIL: %q has zero audio duration\n", r.Name)
		return false
	}
	fmt.Printf("  PASS: %q loads (%d words, %.1fs, %.1f wpm)\n",
		r.Name, r.TotalWords, r.AudioSeconds, r.WordsPerMinute())
	return true
}

func checkProviderKey() bool {
	fmt.Println()
	fmt.Println("[2/3] Transcription provider")

	if os.Getenv("GROQ_API_KEY") != "" {
		fmt.Println("  PASS: GROQ_API_KEY is set")
		return true
	}
	if os.Getenv("DEEPGRAM_API_KEY") != "" {
		fmt.Println("  PASS: DEEPGRAM_API_KEY is set")
		return true
	}
	fmt.Println("  FAIL: set GROQ_API_KEY or DEEPGRAM_API_KEY")
	return false
}

func checkMicAndTranscription() bool {
	fmt.Println()
	fmt.Println("[3/3] Microphone and Hebrew transcription")

	reader := bufio.NewReader(os.Stdin)

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	var device *audio.DeviceInfo
	if len(devices) == 1 {
		device = &devices[0]
		fmt.Printf("Using device: %s\n", device.Name)
	} else {
		fmt.Println()
		fmt.Println("Select input device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		devChoice = strings.TrimSpace(devChoice)
		idx := 0
		if devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Printf("  FAIL: invalid choice\n")
			return false
		}
		device = &devices[idx]
		fmt.Printf("Selected: %s\n", device.Name)
	}

	trans, err := transcriber.New()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	fmt.Println()
	fmt.Print("Press Enter and read a verse aloud for 3 seconds...")
	reader.ReadString('\n')

	stop := make(chan struct{})
	go func() {
		time.Sleep(3 * time.Second)
		close(stop)
	}()

	audioData, err := recordAudio(ctx, device, stop)
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}

	if len(audioData) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	fmt.Printf("  Recorded %.1f KB, transcribing...\n", float64(len(audioData))/1024)

	sess, err := trans.NewSession(context.Background(), transcriber.SessionConfig{})
	if err != nil {
		fmt.Printf("  FAIL: session error: %v\n", err)
		return false
	}
	sess.Feed(audioData)
	result, err := sess.Close()
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		text = "(no speech detected)"
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	// Ask user to confirm - fresh reader to clear any buffered input
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}

	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func recordAudio(ctx audio.Context, device *audio.DeviceInfo, stop <-chan struct{}) ([]byte, error) {
	var pcmBuf []byte
	var bufMu sync.Mutex
	var stopped bool
	done := make(chan struct{})

	config := audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	}

	captureDevice, err := ctx.NewCapture(device, config)
	if err != nil {
		return nil, err
	}

	captureDevice.SetCallback(func(data []byte, frameCount uint32) {
		bufMu.Lock()
		if stopped {
			bufMu.Unlock()
			return
		}
		pcmBuf = append(pcmBuf, data...)
		bufMu.Unlock()
	})

	if err := captureDevice.Start(); err != nil {
		captureDevice.Close()
		return nil, err
	}

	fmt.Print("  Recording")
	ticker := time.NewTicker(500 * time.Millisecond)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	<-stop
	close(done)

	captureDevice.Stop()
	fmt.Println(" done")
	captureDevice.Close()

	bufMu.Lock()
	stopped = true
	raw := pcmBuf
	bufMu.Unlock()

	return raw, nil
}
