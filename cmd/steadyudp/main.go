package main

import "steadyudp/cmd"

func main() {
	cmd.Execute()
}
