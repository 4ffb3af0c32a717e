package main

import (
	"os"

	"github.com/zeu5/reinforce-cartpole/experiments/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
