// Command chatwidget runs the event chat widget in a terminal: it polls an
// event's chat, renders it and lets the viewer post and delete messages.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
