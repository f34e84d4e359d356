package main

import "mdbrowser/cmd"

func main() {
	cmd.Execute()
}
