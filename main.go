package main

import "github.com/aigent47/grok-code/cmd"

func main() {
	cmd.Execute()
}
