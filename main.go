package main

import "github.com/loralayer2/ll2/cmd"

func main() {
	cmd.Execute()
}
