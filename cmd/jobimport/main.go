// jobimport: job feed import service
//
// Pulls RSS/Atom/XML job feeds, deduplicates the postings into a job store
// and keeps a per-run import log. Items are processed asynchronously on a
// Redis-backed queue so a slow or failing item never blocks the rest of a run.
//
// Commands:
//   - serve:  HTTP API, optional inline worker and cron trigger
//   - worker: standalone queue consumer with a gRPC health endpoint
//   - fetch:  download and normalise one feed, print the result
//   - stats:  record counts and the latest import logs
//   - version
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
