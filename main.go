package main

import "github.com/statweave/assoctab-cli/cmd"

func main() {
	cmd.Execute()
}
