// Command s3upload uploads files and folders to an S3-compatible bucket
// from the terminal.
package main

func main() {
	Execute(RootCmd())
}
