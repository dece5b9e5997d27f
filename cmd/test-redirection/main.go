package main

import cmd "github.com/rohmanhakim/test-redirection/internal/cli"

func main() {
	cmd.Execute()
}
