package main

import "assurify/internal/cli"

func main() {
	cli.Execute()
}
