package main

import "github.com/vibast-solutions/ms-go-academy/cmd"

func main() {
	cmd.Execute()
}
