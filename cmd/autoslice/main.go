// Package main provides the autoslice CLI, which keeps sliced G-code in sync
// with 3D print projects and slicer profiles.
package main

func main() {
	Execute()
}
