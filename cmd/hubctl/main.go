package main

import "github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/cmd"

func main() {
	cmd.Execute()
}
