// Command ccbench drives the concurrent B+tree index through scripted
// workloads for manual performance investigation: building a tree and
// reporting its shape, running concurrent updaters against readers,
// sweeping every locking strategy, and generating synthetic workloads.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(os.Args[2:])
	case "update_read":
		err = runUpdateRead(os.Args[2:])
	case "crud_protocols":
		err = runCrudProtocols(os.Args[2:])
	case "gen":
		err = runGen(os.Args[2:])
	case "-h", "--help", "help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "ccbench: unknown subcommand %q\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "ccbench:", err)
		os.Exit(1)
	}
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "Usage: ccbench <subcommand> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands:")
	fmt.Fprintln(w, "  create          build a tree and report its height/visit counts")
	fmt.Fprintln(w, "  update_read     run concurrent updaters against readers on one tree")
	fmt.Fprintln(w, "  crud_protocols  run the same workload across every locking strategy")
	fmt.Fprintln(w, "  gen             generate a synthetic shuffled key/payload workload")
}
