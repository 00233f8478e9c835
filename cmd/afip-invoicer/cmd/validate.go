package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/internal/receiptfile"
)

var strictValidation bool

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate receipt files",
	Long: `Validate one or more receipt files without contacting AFIP.

Checks performed:
  - Issuer CUIT present and 11 digits
  - Customer name and identity document present
  - Point of sale, invoice type and concept supported
  - At least one item, quantities of 1 or more, positive total
  - Date formats (YYYY-MM-DD)

Examples:
  afip-invoicer validate receipt.json
  afip-invoicer validate receipts/ --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Require descriptive company fields (name, address)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		printVerbose("Validating: %s\n", file)
		result := validateFile(file, strictValidation)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	w := cmd.OutOrStdout()
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		printValidation(w, results)
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(path string, strict bool) *ValidationResult {
	result := &ValidationResult{File: path}

	file, err := receiptfile.Load(path)
	if err != nil {
		result.Errors = []string{fmt.Sprintf("parse error: %v", err)}
		return result
	}

	report := file.Validate(strict)
	result.Valid = report.Valid
	result.Errors = report.Errors
	result.Warnings = report.Warnings
	if report.Valid {
		if receipt, err := file.ToReceipt(); err == nil {
			result.Total = receipt.Total().StringFixed(2)
		}
	}
	return result
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		// Check if it's a glob pattern
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			if !info.IsDir() {
				files = append(files, arg)
				continue
			}
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				files = append(files, match)
				continue
			}
			err = filepath.Walk(match, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isReceiptFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func isReceiptFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Total    string   `json:"total,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
