package main

import "github.com/mcoot/realmledger/internal/cli"

func main() {
	cli.Execute()
}
