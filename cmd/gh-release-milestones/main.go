package main

import "github.com/goblinsan/gh-release-milestones/cmd/gh-release-milestones/commands"

func main() {
	commands.Execute()
}
