package main

import "songservice/cmd"

func main() {
	cmd.Execute()
}
