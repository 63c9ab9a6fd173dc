package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/a11ytabs/internal/accessibility"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

// rtlValue is the --rtl flag. It accepts the spellings tabs.ParseRTLMode
// does and stores the canonical one.
type rtlValue struct {
	mode string
}

func (r *rtlValue) String() string { return r.mode }

func (r *rtlValue) Set(s string) error {
	mode, err := tabs.ParseRTLMode(s)
	if err != nil {
		return err
	}
	r.mode = string(mode)
	return nil
}

func (r *rtlValue) Type() string { return "auto|true|false" }

// formatValue is a report format flag.
type formatValue struct {
	format accessibility.ReportFormat
}

func (f *formatValue) String() string { return string(f.format) }

func (f *formatValue) Set(s string) error {
	format, err := accessibility.ParseReportFormat(s)
	if err != nil {
		return err
	}
	f.format = format
	return nil
}

func (f *formatValue) Type() string { return "console|json|yaml" }

var (
	_ pflag.Value = (*rtlValue)(nil)
	_ pflag.Value = (*formatValue)(nil)
)

// bindFlags binds each config key to the named flag.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) {
	for key, name := range bindings {
		if flag := flags.Lookup(name); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}
