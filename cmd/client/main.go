package main

import "greenkeep/cmd/client/cmd"

func main() {
	cmd.Execute()
}
