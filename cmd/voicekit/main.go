// Package main is the entry point for the voicekit CLI.
//
// Usage:
//
//	voicekit [flags] <command> [args]
//
// Commands:
//
//	triage    - Bucket transcript segments into passed/flagged/dropped
//	resolve   - Map an episode's local speakers to persistent identities
//	clusters  - Group unlabeled voice embeddings into recurring speakers
//	label     - Assign a human-verified name to an embedding record
//	identify  - Identify a speaker via the remote platform
//	enroll    - Enroll a speaker voiceprint on the remote platform
//	prune     - Remove old low-confidence embeddings from the index
//	stats     - Show index statistics
//	config    - Configuration management
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/askthegame/voicekit/cmd/voicekit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
