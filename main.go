/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "mindroute/cmd"

func main() {
	cmd.Execute()
}
