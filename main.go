package main

import "github.com/martinemde/toolloop/cmd"

func main() {
	cmd.Execute()
}
