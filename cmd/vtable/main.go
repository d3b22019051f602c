// Command vtable browses large row collections in a virtualized terminal
// table.
package main

func main() {
	Execute()
}
