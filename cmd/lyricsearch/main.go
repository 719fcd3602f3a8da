// Command lyricsearch builds and queries a lyrics index from the terminal.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/cmd/lyricsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
