package main

import "github.com/oshokin/release-packager/cmd/release-trigger/cmd"

func main() {
	cmd.Execute()
}
