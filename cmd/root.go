package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "quizagent"}

	root.AddCommand(serveCMD(), solveCMD())
	_ = root.Execute()
}
