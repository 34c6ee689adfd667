package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateWorkbookPath checks that an optional workbook destination is an .xlsx file.
// An empty path disables the workbook and is accepted.
func ValidateWorkbookPath(path string) error {
	if path == "" {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("workbook path %s must end in .xlsx", path)
	}
	return nil
}
