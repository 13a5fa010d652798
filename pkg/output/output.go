package output

import "github.com/ericogr/envlogger/pkg/sample"

// Output receives one record per completed sampling cycle.
type Output interface {
	Publish(sample.Record) error
	Close() error
}

// helper constructors are in subpackages
