package main

import "stagegate/internal/cli"

func main() {
	cli.Execute()
}
