// The main package for the regwatch executable.
package main

import "github.com/regwatch/regwatch-crawler/cmd"

func main() {
	cmd.Execute()
}
