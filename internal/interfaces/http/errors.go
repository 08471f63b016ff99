package httpinterface

import "errors"

var (
	ErrMissingAddress        = errors.New("missing listening address")
	ErrMissingHealthReporter = errors.New("missing health reporter")
)
