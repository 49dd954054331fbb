// Package errors provides examples of structured error handling in growout.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/growout/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	err := errors.New(errors.ErrorTypeFormat, "year suffix is not numeric")

	err = err.WithDetail("trait", "weight_FLxx")

	fmt.Println(err.Error())

	// Output:
	// format: year suffix is not numeric
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	originalErr := io.ErrUnexpectedEOF

	err := errors.Wrap(originalErr, errors.ErrorTypeFile, "failed to read phenotype file").
		WithDetail("file", "weights.csv")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	fmt.Println(err)

	// Output:
	// This is a file error
	// file: failed to read phenotype file: unexpected EOF
}

// ExampleTypeMismatch shows the error raised for a stray header row in stdin data.
func ExampleTypeMismatch() {
	err := errors.TypeMismatch("weight_FL06", "number", "weight_FL06", 3)
	fmt.Println(err)

	// Output:
	// type_mismatch: "weight_FL06" does not match column type of number (column "weight_FL06", line 3). Check for extra headers or comments
}

// ExampleUnknownTransformer shows both the empty and the unknown transformer cases.
func ExampleUnknownTransformer() {
	known := []string{"row-tag", "trait-suffix"}
	fmt.Println(errors.UnknownTransformer("", known))
	fmt.Println(errors.UnknownTransformer("csv_z", known))

	// Output:
	// unknown_transformer: no transformer was supplied, available: row-tag, trait-suffix
	// unknown_transformer: unknown transformer "csv_z", available: row-tag, trait-suffix
}
