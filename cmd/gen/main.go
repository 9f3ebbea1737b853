package main

import (
	"Weave/internal/repository"
	"Weave/pkg/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	repository.RunGenerate()
}
