// Command extractjson pipes stdin through the resilient JSON extractor.
// Handy for checking how a given model transcript would parse:
//
//	pbpaste | extractjson
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm"
)

func main() {
	in, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
		os.Exit(1)
	}

	v, ok := llm.ExtractJSON(string(in))
	if !ok {
		fmt.Fprintln(os.Stderr, "no well-formed JSON value recovered")
		os.Exit(1)
	}
	fmt.Println(string(v))
}
