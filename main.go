package main

import "github.com/kozaktomas/expression-tracker/cmd"

func main() {
	cmd.Execute()
}
