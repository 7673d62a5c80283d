package main

import "github.com/vietddude/chainreader/internal/cli"

func main() {
	cli.Execute()
}
