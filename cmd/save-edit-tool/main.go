package main

import "save-edit-tool/internal/cli"

func main() {
	cli.Execute()
}
