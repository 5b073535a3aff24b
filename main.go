package main

import "github.com/frahmantamala/optical-pos/cmd"

func main() {
	cmd.Execute()
}
