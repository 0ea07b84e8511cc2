package usecase

import (
	"errors"
	"fmt"
)

type teardownStep struct {
	name string
	run  func() error
}

// teardown is an ordered list of independent release steps. Every step runs
// even if an earlier one fails; failures are joined in order.
type teardown []teardownStep

func (t teardown) add(name string, run func() error) teardown {
	return append(t, teardownStep{name: name, run: run})
}

func (t teardown) Run() error {
	var errs []error
	for _, step := range t {
		if err := runStep(step); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

func runStep(step teardownStep) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.run()
}
