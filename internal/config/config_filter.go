package config

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

const (
	FilterTypeBlock    = "FILTER_TYPE_BLOCK"
	FilterTypeDocument = "FILTER_TYPE_DOCUMENT"
)

type Filter struct {
	Type      string `yaml:"type" validate:"required,oneof=FILTER_TYPE_BLOCK FILTER_TYPE_DOCUMENT"`
	Condition string `yaml:"condition" validate:"required"`

	once       sync.Once
	program    *vm.Program
	compileErr error
}

// FilterDocumentEnv describes the whole document. It is evaluated once
// before any block of the document is considered.
type FilterDocumentEnv struct {
	Paragraphs int `expr:"paragraphs"`
	Words      int `expr:"words"`
	Characters int `expr:"characters"`
}

// FilterBlockEnv describes a single paragraph or sentence block.
//
// The `expr` tag is used to map the field to the corresponding variable.
// Without it, all variables start with capitalized letters.
type FilterBlockEnv struct {
	ID        string `expr:"id"`
	Index     int    `expr:"index"`
	Kind      string `expr:"kind"`
	Content   string `expr:"content"`
	Words     int    `expr:"words"`
	Sentences int    `expr:"sentences"`
	Expanded  bool   `expr:"expanded"`
}

func (f *Filter) env() interface{} {
	if f.Type == FilterTypeDocument {
		return FilterDocumentEnv{}
	}
	return FilterBlockEnv{}
}

func (f *Filter) compile() (*vm.Program, error) {
	f.once.Do(func() {
		program, err := expr.Compile(
			f.Condition,
			expr.Env(f.env()),
			expr.AsBool(),
		)
		f.program, f.compileErr = program, errors.Wrap(err, "failed to compile filter program")
	})
	return f.program, f.compileErr
}

func (f *Filter) Evaluate(env interface{}) (bool, error) {
	program, err := f.compile()
	if program == nil {
		return false, err
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, errors.Wrap(err, "failed to run filter program")
	}
	return result.(bool), nil
}
