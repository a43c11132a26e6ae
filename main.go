// Public domain.

package main

import "github.com/soniakeys/emi/internal/emiprog"

func main() {
	emiprog.Main()
}
