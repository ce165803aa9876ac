package main

import (
	"os"

	"github.com/pavlin-policar/youtube-playlist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
