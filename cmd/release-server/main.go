package main

import "github.com/oshokin/release-packager/cmd/release-server/cmd"

func main() {
	cmd.Execute()
}
