// memscope replays a device memory trace against watch and assertion
// rules, logging observed values and halting on violated conditions.
package main

func main() {
	Execute()
}
