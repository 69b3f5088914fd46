package main

import (
	"github.com/wal-g/s3rm/cmd/s3rm"
)

func main() {
	s3rm.Execute()
}
