// Command busywork is a demo that logs through nlog into a Loupe agent
// session: named workers log trace messages, one of them fails, and a
// nested error is logged on request.
package main

func main() {
	Execute()
}
