package main

import "convmetrics/cmd"

func main() {
	cmd.Execute()
}
