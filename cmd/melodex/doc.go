// Command melodex is the operator CLI for the melodex daemon. It talks to a
// running melodexd over its HTTP API.
package main
