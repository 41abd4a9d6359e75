package main

import "github.com/dekarrin/corral/cmd/corral/commands"

func main() {
	commands.Execute()
}
