package main

import "github.com/KaramelBytes/flightdash/cmd"

func main() {
	cmd.Execute()
}
