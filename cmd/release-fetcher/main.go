package main

import "github.com/oshokin/release-packager/cmd/release-fetcher/cmd"

func main() {
	cmd.Execute()
}
