package main

import "StockSync/internal/cli"

func main() {
	cli.Execute()
}
