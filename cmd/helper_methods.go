package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/PolarWolf314/pkgdoctor/internal/ui"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner writing to w unless quiet, verbose or debug is set.
// Returns the spinner and a cleanup function that stops it and prints FinalMSG.
// Cleanup may be called more than once; only the first call has an effect.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(w io.Writer, message string, quiet bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	spinning := !quiet && !verbose && !debug
	if spinning {
		s.Start()
		// Ensure log output is discarded while the spinner owns the line.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("%s", message)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if spinning {
				log.SetOutput(os.Stderr)
			}

			finalMsg := ""
			if s.FinalMSG != "" {
				finalMsg = ui.EnsureNewline(s.FinalMSG)
				// Clear FinalMSG so s.Stop() doesn't print it.
				s.FinalMSG = ""
			}

			if spinning {
				s.Stop()
			}

			if finalMsg != "" {
				fmt.Fprint(w, finalMsg)
			}
		})
	}

	return s, cleanup
}
