package main

import (
	envpipecmd "github.com/initializ/envpipe/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	envpipecmd.SetVersionInfo(version, commit)
	envpipecmd.Execute()
}
