package main

import (
	"io"

	"github.com/samber/do"

	"lox/interpreter-go/pkg/driver"
)

// sessionFactory creates a fresh session printing to out.
type sessionFactory func(out io.Writer) (*driver.Session, error)

// newContainer wires the services shared by every subcommand. Providers
// are lazy, so a command that never runs fixtures never builds an executor.
func newContainer(configPath, dir string) *do.Injector {
	injector := do.New()

	do.Provide(injector, func(i *do.Injector) (driver.Config, error) {
		if configPath != "" {
			return driver.LoadConfig(configPath)
		}
		return driver.LoadNearestConfig(dir)
	})

	do.Provide(injector, func(i *do.Injector) (driver.Executor, error) {
		cfg, err := do.Invoke[driver.Config](i)
		if err != nil {
			return nil, err
		}
		return driver.NewExecutor(cfg.Parallelism), nil
	})

	do.Provide(injector, func(i *do.Injector) (sessionFactory, error) {
		cfg, err := do.Invoke[driver.Config](i)
		if err != nil {
			return nil, err
		}
		return func(out io.Writer) (*driver.Session, error) {
			return driver.NewSession(cfg, out)
		}, nil
	})

	return injector
}
