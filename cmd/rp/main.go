// Command rp compresses and decompresses files with the Re-Pair grammar.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/npillmayer/repair"
)

const archiveExt = ".rp"

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 || len(args) > 3 {
		usage(stderr)
		return 2
	}
	input := args[1]
	var output string
	if len(args) == 3 {
		output = args[2]
	}

	switch args[0] {
	case "compress":
		if output == "" {
			output = input + archiveExt
		}
		return compress(input, output, stdout, stderr)
	case "decompress":
		if output == "" {
			if strings.HasSuffix(input, archiveExt) {
				output = strings.TrimSuffix(input, archiveExt)
			} else {
				output = input + ".decompressed"
			}
		}
		return decompress(input, output, stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func usage(stderr io.Writer) {
	fmt.Fprintln(stderr, "Usage: rp <compress|decompress> <input> [output]")
	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, "Compressor and decompressor based on the Re-Pair grammar.")
	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, "  compress    build the Re-Pair archive of <input> (default output: <input>.rp)")
	fmt.Fprintln(stderr, "  decompress  expand an rp archive (default output strips the .rp extension)")
}

func compress(input, output string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	grammar, err := repair.Compress(data)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	written, err := grammar.WriteTo(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(stderr, "error writing %s: %v\n", output, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s: %s in, %s out (%d rules)\n", output,
		datasize.ByteSize(len(data)).HumanReadable(),
		datasize.ByteSize(written).HumanReadable(), len(grammar.Rules))
	return 0
}

func decompress(input, output string, stdout, stderr io.Writer) int {
	f, err := os.Open(input)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	grammar, err := repair.ReadGrammar(bufio.NewReader(f))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(stderr, "error reading %s: %v\n", input, err)
		return 1
	}
	data, err := grammar.Expand()
	if err != nil {
		fmt.Fprintf(stderr, "error expanding %s: %v\n", input, err)
		return 1
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s: %s\n", output, datasize.ByteSize(len(data)).HumanReadable())
	return 0
}
