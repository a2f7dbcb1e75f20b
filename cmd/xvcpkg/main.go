package main

import "github.com/kontex-neuro/xvcpkg/cmd/xvcpkg/internal"

func main() {
	internal.Execute()
}
