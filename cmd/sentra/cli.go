package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "sign":
		return runSign(args[2:])
	case "verify":
		return runVerify(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "sentra"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s sign --secret <secret> --in <payload.json> [--alg sha256|sha1|sha512] [--no-timestamp] [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s verify --secret <secret> --in <payload.json> --signature <hex> [--timestamp <millis>] [--alg sha256|sha1|sha512] [--tolerance-seconds <n>]\n", name)
}
