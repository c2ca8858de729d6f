package main

import "greenkeep/cmd/server/cmd"

func main() {
	cmd.Execute()
}
