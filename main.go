package main

import "github.com/miloshr/psconf/cmd"

func main() {
	cmd.Execute()
}
