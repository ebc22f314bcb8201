package main

import "github.com/askrepo/askrepo/cmd"

func main() {
	cmd.Execute()
}
