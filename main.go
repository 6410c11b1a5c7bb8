package main

import (
	"fmt"
	"os"

	"github.com/zeu5/pcl-gym/experiments"
)

// main entry point, wires the command line to the experiment launcher
func main() {
	rootCommand := experiments.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
