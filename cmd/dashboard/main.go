package main

import "vdt.ai/dashboard/cmd/dashboard/cmd"

func main() {
	cmd.Execute()
}
