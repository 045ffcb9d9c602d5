package main

import "github.com/samsaffron/term-chat/cmd"

func main() {
	cmd.Execute()
}
