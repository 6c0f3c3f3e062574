// Command wordlens keeps a list of English words to learn, translates them
// into Chinese and highlights every occurrence on the pages you read.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
