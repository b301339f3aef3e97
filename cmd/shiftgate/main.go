package main

import "github.com/hris-labs/shiftgate/cmd/shiftgate/cmd"

func main() {
	cmd.Execute()
}
