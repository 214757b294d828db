package main

import "github.com/linguaspark/linguaspark-go/cmd/linguaspark/cmd"

func main() {
	cmd.Execute()
}
