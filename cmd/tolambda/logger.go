package main

import (
	"go.uber.org/zap"
)

func newLogger(jsonOutput bool) (*zap.Logger, error) {
	if jsonOutput {
		return zap.NewProductionConfig().Build()
	}
	return zap.NewDevelopmentConfig().Build()
}
