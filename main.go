package main

import "github.com/hrsuite/faceauth/cmd"

func main() {
	cmd.Execute()
}
