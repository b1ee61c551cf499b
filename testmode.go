package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/binyominzeev/leining-app/feedback"
	"github.com/binyominzeev/leining-app/log"
)

// runTestMode drives the feedback pipeline from stdin, one command per
// line, so integration harnesses can score transcripts without audio or
// a provider key:
//
//	REFERENCE <text>   set the reference verse
//	MARKER <word>      set the marker word
//	SUBMIT <text>      score a transcription update
//	RESET              clear the flash latch for a new take
//	QUIT               exit
func runTestMode(marker string, ignoreMarks bool) {
	sess := feedback.NewSession("", marker, ignoreMarks)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		if cmd == "" {
			continue
		}
		verb, rest, _ := strings.Cut(cmd, " ")
		switch verb {
		case "REFERENCE":
			sess.SetReference(rest)
			fmt.Println("OK reference")
		case "MARKER":
			sess.SetMarker(rest)
			fmt.Println("OK marker")
		case "SUBMIT":
			ev := sess.Submit(rest)
			if ev.FlashTriggered {
				log.MarkerFlash(sess.Marker())
			}
			log.Feedback(ev.Similarity, ev.ExactMatch, ev.MarkerReached)
			fmt.Printf("RESULT exact=%t similarity=%.4f marker=%t flash=%t\n",
				ev.ExactMatch, ev.Similarity, ev.MarkerReached, ev.FlashTriggered)
		case "RESET":
			sess.Reset()
			fmt.Println("OK reset")
		case "QUIT":
			log.Close()
			os.Exit(0)
		default:
			fmt.Printf("ERROR unknown command %q\n", verb)
		}
	}
}
