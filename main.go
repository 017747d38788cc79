package main

import "github.com/itsmostafa/wikichunk/cmd"

func main() {
	cmd.Execute()
}
