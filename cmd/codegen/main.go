// codegen downloads GraphQL schemas and generates client code from them.
package main

import "github.com/albertocavalcante/codegen/cmd/codegen/internal/cli"

func main() {
	cli.Execute()
}
