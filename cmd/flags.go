package cmd

import (
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/jsonlv/pkg/view"
)

// modeValue is a pflag.Value that accepts view mode names and aliases.
type modeValue struct {
	mode *view.Mode
}

var _ pflag.Value = modeValue{}

func (v modeValue) String() string {
	if v.mode == nil {
		return ""
	}
	return string(*v.mode)
}

func (v modeValue) Set(s string) error {
	m, err := view.ParseMode(s)
	if err != nil {
		return err
	}
	*v.mode = m
	return nil
}

func (v modeValue) Type() string {
	return "mode"
}
